package models

type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "Active"
	SaleStatusCancelled SaleStatus = "Cancelled"
	SaleStatusFinalized SaleStatus = "Finalized"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "Pending"
	InstallmentStatusPartial InstallmentStatus = "Partial"
	InstallmentStatusPaid    InstallmentStatus = "Paid"
	InstallmentStatusOverdue InstallmentStatus = "Overdue"
)

type AlertType string

const (
	AlertTypeOverduePayment  AlertType = "OverduePayment"
	AlertTypeUpcomingPayment AlertType = "UpcomingPayment"
	// LowStock alerts are produced by the inventory scanner, which shares
	// this alert table but lives outside the financing engine.
	AlertTypeLowStock AlertType = "LowStock"
)

type AlertPriority string

const (
	AlertPriorityLow    AlertPriority = "Low"
	AlertPriorityMedium AlertPriority = "Medium"
	AlertPriorityHigh   AlertPriority = "High"
	AlertPriorityUrgent AlertPriority = "Urgent"
)

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "Active"
	AlertStatusRead     AlertStatus = "Read"
	AlertStatusResolved AlertStatus = "Resolved"
)

type CommissionSchemeType string

const (
	SchemeTypePercentOfSale   CommissionSchemeType = "PercentOfSale"
	SchemeTypePercentOfProfit CommissionSchemeType = "PercentOfProfit"
	SchemeTypeFixedAmount     CommissionSchemeType = "FixedAmount"
	SchemeTypeTiered          CommissionSchemeType = "Tiered"
)

func (t CommissionSchemeType) IsValid() bool {
	switch t {
	case SchemeTypePercentOfSale, SchemeTypePercentOfProfit, SchemeTypeFixedAmount, SchemeTypeTiered:
		return true
	}
	return false
}

type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "Pending"
	CommissionStatusApproved CommissionStatus = "Approved"
	CommissionStatusPaid     CommissionStatus = "Paid"
)

type FinancingStatus string

const (
	FinancingStatusRequested FinancingStatus = "Requested"
	FinancingStatusApproved  FinancingStatus = "Approved"
	FinancingStatusDisbursed FinancingStatus = "Disbursed"
	FinancingStatusRejected  FinancingStatus = "Rejected"
)
