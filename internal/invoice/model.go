package invoice

import (
	"github.com/congo-pay/invoice_pool/internal/amount"
	"github.com/congo-pay/invoice_pool/internal/host"
)

// Status is the repayment state of an invoice.
type Status string

const (
	StatusUnpaid Status = "unpaid"
	StatusRepaid Status = "repaid"
)

// Invoice is a claim owed by its owner. ID and Owner never change after mint;
// IsRepaid only ever goes from false to true.
type Invoice struct {
	ID       uint64         `json:"id"`
	Owner    host.Principal `json:"owner"`
	Amount   amount.Amount  `json:"amount"`
	DueDate  uint64         `json:"due_date"`
	IsRepaid bool           `json:"is_repaid"`
}

// Status derives the lifecycle state from IsRepaid.
func (i Invoice) Status() Status {
	if i.IsRepaid {
		return StatusRepaid
	}
	return StatusUnpaid
}
