package main

import (
	"fmt"
	"os"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	models.MigrateTable()
	fmt.Println("migration complete")
}
