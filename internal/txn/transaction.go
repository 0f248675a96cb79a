package txn

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Unknown is the grouping key used when a required text field is empty.
const Unknown = "unknown"

// Type is the direction of a transaction; Amount is always non-negative.
type Type string

const (
	Debit  Type = "debit"
	Credit Type = "credit"
)

// Status is the settlement state reported by the upstream feed.
type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Transaction is the canonical input record for every kernel.
// Location and Reference are optional; the empty string means absent.
type Transaction struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Type         Type      `json:"type"`
	Category     string    `json:"category"`
	MerchantName string    `json:"merchantName"`
	Description  string    `json:"description"`
	Status       Status    `json:"status"`
	UserID       string    `json:"userId"`
	AccountID    string    `json:"accountId"`
	Location     string    `json:"location,omitempty"`
	Reference    string    `json:"reference,omitempty"`
}

// Scored is a transaction annotated with its pairwise fraud score.
type Scored struct {
	Transaction
	FraudScore float64 `json:"fraudScore"`
}

// MerchantKey returns the merchant grouping key.
func (t Transaction) MerchantKey() string { return orUnknown(t.MerchantName) }

// UserKey returns the user grouping key.
func (t Transaction) UserKey() string { return orUnknown(t.UserID) }

// CategoryKey returns the category grouping key.
func (t Transaction) CategoryKey() string { return orUnknown(t.Category) }

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// Validate reports every structural problem with t. Kernels never call it;
// it guards ingestion into a repository.
func Validate(t Transaction) error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if t.Timestamp.IsZero() {
		errs = append(errs, errors.New("timestamp is required"))
	}
	switch {
	case math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0):
		errs = append(errs, fmt.Errorf("amount must be finite, got %v", t.Amount))
	case t.Amount < 0:
		errs = append(errs, fmt.Errorf("amount must be non-negative, got %v", t.Amount))
	}
	switch t.Type {
	case Debit, Credit:
	default:
		errs = append(errs, fmt.Errorf("type must be debit or credit, got %q", t.Type))
	}
	switch t.Status {
	case Pending, Completed, Failed:
	default:
		errs = append(errs, fmt.Errorf("status must be pending, completed or failed, got %q", t.Status))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("transaction %q: %w", t.ID, errors.Join(errs...))
}
