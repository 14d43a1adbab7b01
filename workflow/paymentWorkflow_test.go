package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/models"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func scheduleOf(amounts ...[2]string) []*models.Installment {
	installments := make([]*models.Installment, 0, len(amounts))
	for i, pair := range amounts {
		installments = append(installments, &models.Installment{
			ID:                i + 1,
			InstallmentNumber: i + 1,
			ScheduledAmount:   d(pair[0]),
			AmountPaid:        d(pair[1]),
		})
	}
	return installments
}

func TestAllocatePayment_FirstDueFirstPaid(t *testing.T) {
	installments := scheduleOf(
		[2]string{"1000", "400"},
		[2]string{"1000", "0"},
		[2]string{"1000", "0"},
	)

	allocations, err := allocatePayment(installments, d("1500"))
	if err != nil {
		t.Fatalf("allocatePayment error: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if allocations[0].installment.InstallmentNumber != 1 || !allocations[0].amount.Equal(d("600")) {
		t.Fatalf("first allocation expected 600 on installment 1, got %s on %d",
			allocations[0].amount.String(), allocations[0].installment.InstallmentNumber)
	}
	if allocations[1].installment.InstallmentNumber != 2 || !allocations[1].amount.Equal(d("900")) {
		t.Fatalf("second allocation expected 900 on installment 2, got %s on %d",
			allocations[1].amount.String(), allocations[1].installment.InstallmentNumber)
	}
}

func TestAllocatePayment_SkipsSettledInstallments(t *testing.T) {
	installments := scheduleOf(
		[2]string{"1000", "1000"},
		[2]string{"1000", "250"},
	)

	allocations, err := allocatePayment(installments, d("750"))
	if err != nil {
		t.Fatalf("allocatePayment error: %v", err)
	}
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if allocations[0].installment.InstallmentNumber != 2 {
		t.Fatalf("expected allocation on installment 2, got %d", allocations[0].installment.InstallmentNumber)
	}
	if !allocations[0].amount.Equal(d("750")) {
		t.Fatalf("expected 750 allocated, got %s", allocations[0].amount.String())
	}
}

func TestAllocatePayment_PaysOffExactBalance(t *testing.T) {
	installments := scheduleOf(
		[2]string{"1000", "400"},
		[2]string{"1000", "0"},
		[2]string{"1000", "0"},
	)

	allocations, err := allocatePayment(installments, d("2600"))
	if err != nil {
		t.Fatalf("allocatePayment error: %v", err)
	}
	if len(allocations) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocations))
	}
	total := decimal.Zero
	for _, allocation := range allocations {
		total = total.Add(allocation.amount)
	}
	if !total.Equal(d("2600")) {
		t.Fatalf("allocations expected to sum to 2600, got %s", total.String())
	}
}

func TestAllocatePayment_RejectsOverpayment(t *testing.T) {
	installments := scheduleOf([2]string{"1000", "400"})

	_, err := allocatePayment(installments, d("600.01"))
	if err == nil {
		t.Fatalf("expected overpayment to be rejected")
	}
	if !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAllocatePayment_RejectsNonPositiveAmount(t *testing.T) {
	installments := scheduleOf([2]string{"1000", "0"})

	for _, amount := range []string{"0", "-50"} {
		_, err := allocatePayment(installments, d(amount))
		if err == nil {
			t.Fatalf("amount %s: expected error, got nil", amount)
		}
		if !errors.Is(err, utils.ErrValidation) {
			t.Fatalf("amount %s: expected validation error, got %v", amount, err)
		}
	}
}
