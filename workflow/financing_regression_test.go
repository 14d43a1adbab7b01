package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/models"
	"github.com/YanTejera/inversiones-castillo-sub000/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end financing regression: schedule generation, payment application,
// overdue refresh, alert scan and commission computation against a real MySQL.
//
// Usage (requires Docker):
//   INTEGRATION_TESTS=1 go test ./workflow -run FinancingLifecycle -v

func TestFinancingLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "castillo_test")
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	models.MigrateTable()

	salesPerson, err := models.CreateSalesPerson(ctx, &models.NewSalesPerson{
		Name:  "Maria Perez",
		Email: "maria@test.local",
	})
	if err != nil {
		t.Fatalf("CreateSalesPerson: %v", err)
	}

	saleDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	sale := &models.Sale{
		CustomerId:        1,
		SalesPersonId:     salesPerson.ID,
		SaleDate:          saleDate,
		TotalAmount:       decimal.RequireFromString("272000"),
		DownPayment:       decimal.RequireFromString("50000"),
		TermMonths:        12,
		AnnualRatePercent: decimal.RequireFromString("15"),
		Status:            models.SaleStatusActive,
	}
	if err := db.WithContext(ctx).Create(sale).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}

	// 1) Generate the schedule and verify the derived figures.
	installments, err := workflow.GenerateSchedule(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(installments) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(installments))
	}
	for _, installment := range installments {
		if got := installment.ScheduledAmount.StringFixed(2); got != "20037.35" {
			t.Fatalf("installment %d scheduled amount expected 20037.35, got %s",
				installment.InstallmentNumber, got)
		}
	}
	if got := installments[0].DueDate.Format("2006-01-02"); got != "2026-02-15" {
		t.Fatalf("first due date expected 2026-02-15, got %s", got)
	}

	refreshed, err := models.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale after schedule: %v", err)
	}
	if got := refreshed.MonthlyPayment.StringFixed(2); got != "20037.35" {
		t.Fatalf("sale monthly payment expected 20037.35, got %s", got)
	}
	if got := refreshed.TotalWithInterest.StringFixed(2); got != "290448.12" {
		t.Fatalf("sale total with interest expected 290448.12, got %s", got)
	}

	// Generating twice must fail.
	if _, err := workflow.GenerateSchedule(ctx, sale.ID); err == nil {
		t.Fatalf("second GenerateSchedule expected to fail")
	}

	// 2) A partial payment leaves the first installment Partial.
	touched, err := workflow.RecordPayment(ctx,
		workflow.PaymentTarget{SaleId: sale.ID},
		decimal.RequireFromString("10000"), saleDate.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("RecordPayment partial: %v", err)
	}
	if len(touched) != 1 || touched[0].Status != models.InstallmentStatusPartial {
		t.Fatalf("partial payment expected one Partial installment, got %+v", touched)
	}

	// Completing the balance plus the full second installment spills over.
	touched, err = workflow.RecordPayment(ctx,
		workflow.PaymentTarget{SaleId: sale.ID},
		decimal.RequireFromString("30074.70"), saleDate.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("RecordPayment spillover: %v", err)
	}
	if len(touched) != 2 {
		t.Fatalf("spillover payment expected to touch 2 installments, got %d", len(touched))
	}
	if touched[0].Status != models.InstallmentStatusPaid || touched[1].Status != models.InstallmentStatusPaid {
		t.Fatalf("both touched installments expected Paid, got %s and %s",
			touched[0].Status, touched[1].Status)
	}

	// 3) Past the third due date the alert scan flags it and is idempotent.
	asOf := saleDate.AddDate(0, 3, 5)
	created, err := workflow.GenerateAlerts(ctx, asOf)
	if err != nil {
		t.Fatalf("GenerateAlerts: %v", err)
	}
	if created == 0 {
		t.Fatalf("expected overdue alerts to be created")
	}
	createdAgain, err := workflow.GenerateAlerts(ctx, asOf)
	if err != nil {
		t.Fatalf("GenerateAlerts rerun: %v", err)
	}
	if createdAgain != 0 {
		t.Fatalf("rerun inside the cool-down expected 0 alerts, got %d", createdAgain)
	}

	var overdueCount int64
	if err := db.Model(&models.Installment{}).
		Where("sale_id = ? AND status = ?", sale.ID, models.InstallmentStatusOverdue).
		Count(&overdueCount).Error; err != nil {
		t.Fatalf("count overdue: %v", err)
	}
	if overdueCount != 1 {
		t.Fatalf("expected 1 Overdue installment after refresh, got %d", overdueCount)
	}

	// 4) Finalize the sale, assign a scheme and compute the commission.
	if err := db.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("status", models.SaleStatusFinalized).Error; err != nil {
		t.Fatalf("finalize sale: %v", err)
	}
	scheme, err := models.CreateCommissionScheme(ctx, &models.NewCommissionScheme{
		Name:        "Standard 5%",
		Type:        models.SchemeTypePercentOfSale,
		BasePercent: decimal.RequireFromString("5"),
	})
	if err != nil {
		t.Fatalf("CreateCommissionScheme: %v", err)
	}
	if _, err := models.AssignScheme(ctx, &models.NewSchemeAssignment{
		SalesPersonId: salesPerson.ID,
		SchemeId:      scheme.ID,
		StartDate:     saleDate.AddDate(0, -1, 0),
	}); err != nil {
		t.Fatalf("AssignScheme: %v", err)
	}

	commission, err := workflow.ComputeCommission(ctx, sale.ID)
	if err != nil {
		t.Fatalf("ComputeCommission: %v", err)
	}
	if got := commission.TotalAmount.StringFixed(2); got != "13600.00" {
		t.Fatalf("commission expected 13600.00 (5%% of 272000), got %s", got)
	}
	if _, err := workflow.ComputeCommission(ctx, sale.ID); err == nil {
		t.Fatalf("second ComputeCommission expected to fail")
	}

	// 5) Cancelling another sale cascades its schedule away.
	second := &models.Sale{
		CustomerId:    2,
		SalesPersonId: salesPerson.ID,
		SaleDate:      saleDate,
		TotalAmount:   decimal.RequireFromString("120000"),
		DownPayment:   decimal.RequireFromString("20000"),
		TermMonths:    10,
		Status:        models.SaleStatusActive,
	}
	if err := db.WithContext(ctx).Create(second).Error; err != nil {
		t.Fatalf("create second sale: %v", err)
	}
	if _, err := workflow.GenerateSchedule(ctx, second.ID); err != nil {
		t.Fatalf("GenerateSchedule second sale: %v", err)
	}
	if err := workflow.CancelSale(ctx, second.ID); err != nil {
		t.Fatalf("CancelSale: %v", err)
	}
	var remaining int64
	if err := db.Model(&models.Installment{}).
		Where("sale_id = ?", second.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count cancelled schedule: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("cancelled sale expected 0 installments, got %d", remaining)
	}
	if _, err := workflow.GenerateSchedule(ctx, second.ID); err == nil {
		t.Fatalf("GenerateSchedule on a cancelled sale expected to fail")
	}

	// 6) Month totals are bounded at the sale date: a sale finalized later in
	// the same month must not change what a recompute sees.
	later := &models.Sale{
		CustomerId:    3,
		SalesPersonId: salesPerson.ID,
		SaleDate:      saleDate.AddDate(0, 0, 5),
		TotalAmount:   decimal.RequireFromString("100000"),
		TermMonths:    6,
		Status:        models.SaleStatusFinalized,
	}
	if err := db.WithContext(ctx).Create(later).Error; err != nil {
		t.Fatalf("create later sale: %v", err)
	}
	units, revenue, err := models.MonthlySalesTotals(ctx, salesPerson.ID, saleDate)
	if err != nil {
		t.Fatalf("MonthlySalesTotals: %v", err)
	}
	if units != 1 {
		t.Fatalf("month totals as of %s expected 1 unit, got %d", saleDate.Format("2006-01-02"), units)
	}
	if got := revenue.StringFixed(2); got != "272000.00" {
		t.Fatalf("month revenue as of %s expected 272000.00, got %s", saleDate.Format("2006-01-02"), got)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("castillo-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("castillo-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=castillo_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
