package models

import "time"

// PaymentStatus is owned by the external payment store. The only transition made
// here is pending to matched, when a committed match claims the payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentMatched   PaymentStatus = "matched"
	PaymentExecuted  PaymentStatus = "executed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is an outgoing payment awaiting confirmation on a bank statement.
type Payment struct {
	ID              string        `json:"id" yaml:"id"`
	Amount          float64       `json:"amount" yaml:"amount"`
	BeneficiaryName string        `json:"beneficiary_name" yaml:"beneficiary_name"`
	Reference       string        `json:"reference" yaml:"reference"`
	ExecutionDate   time.Time     `json:"execution_date" yaml:"execution_date"`
	Status          PaymentStatus `json:"status" yaml:"status"`
}
