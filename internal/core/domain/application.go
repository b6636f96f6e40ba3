package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"time"
)

// ApplicationStatus is the workflow state of a loan application.
type ApplicationStatus string

const (
	StatusNew           ApplicationStatus = "New"
	StatusProcessing    ApplicationStatus = "Processing"
	StatusPending       ApplicationStatus = "Pending"
	StatusPendingAgency ApplicationStatus = "Pending@Agency"
	StatusPendingBank   ApplicationStatus = "Pending@Bank"
	StatusReadyToSubmit ApplicationStatus = "Ready to Submit"
	StatusApproved      ApplicationStatus = "Approved"
	StatusRejected      ApplicationStatus = "Rejected"
	StatusDisbursed     ApplicationStatus = "Disbursed"
	StatusDeleteRequest ApplicationStatus = "Delete Request"
)

// StatusWithoutRemarks is the status an application falls back to once its
// last workflow remark is removed.
const StatusWithoutRemarks = StatusPending

var applicationStatuses = []ApplicationStatus{
	StatusNew,
	StatusProcessing,
	StatusPending,
	StatusPendingAgency,
	StatusPendingBank,
	StatusReadyToSubmit,
	StatusApproved,
	StatusRejected,
	StatusDisbursed,
	StatusDeleteRequest,
}

// ApplicationStatuses returns the closed set of workflow states.
func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(applicationStatuses))
	copy(out, applicationStatuses)
	return out
}

// Valid reports whether s belongs to the closed status set.
func (s ApplicationStatus) Valid() bool {
	for _, known := range applicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// openStatuses are the states of an application still being worked on.
var openStatuses = []ApplicationStatus{
	StatusNew,
	StatusProcessing,
	StatusPending,
	StatusPendingAgency,
	StatusPendingBank,
	StatusReadyToSubmit,
}

// OpenStatuses returns the statuses counted as active on the dashboard.
func OpenStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(openStatuses))
	copy(out, openStatuses)
	return out
}

// Open reports whether s is one of the in-progress states.
func (s ApplicationStatus) Open() bool {
	for _, open := range openStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// DeleteRequestRemark is the remark recorded when a customer asks for their
// application to be removed.
func DeleteRequestRemark(reason string) string {
	return "Reason for delete request: " + reason
}

// Application is the loan application aggregate.
type Application struct {
	ID                string            `json:"id" bson:"_id"`
	ReferenceID       string            `json:"reference_id" bson:"reference_id"`
	CustomerID        string            `json:"customer_id" bson:"customer_id"`
	ModuleID          string            `json:"module_id,omitempty" bson:"module_id,omitempty"`
	ProductID         string            `json:"product_id,omitempty" bson:"product_id,omitempty"`
	AgentID           string            `json:"agent_id,omitempty" bson:"agent_id,omitempty"`
	AdminID           string            `json:"admin_id,omitempty" bson:"admin_id,omitempty"`
	Status            ApplicationStatus `json:"status" bson:"status"`
	Biro              string            `json:"biro,omitempty" bson:"biro,omitempty"`
	Banca             string            `json:"banca,omitempty" bson:"banca,omitempty"`
	Rates             *float64          `json:"rates" bson:"rates"`
	TenureApplied     *int              `json:"tenure_applied" bson:"tenure_applied"`
	TenureApproved    *int              `json:"tenure_approved" bson:"tenure_approved"`
	AmountApplied     *float64          `json:"amount_applied" bson:"amount_applied"`
	AmountApproved    *float64          `json:"amount_approved" bson:"amount_approved"`
	AmountDisbursed   *float64          `json:"amount_disbursed" bson:"amount_disbursed"`
	DateReceived      *time.Time        `json:"date_received" bson:"date_received"`
	DateApproved      *time.Time        `json:"date_approved" bson:"date_approved"`
	DateDisbursed     *time.Time        `json:"date_disbursed" bson:"date_disbursed"`
	DateRejected      *time.Time        `json:"date_rejected" bson:"date_rejected"`
	DateSubmitted     *time.Time        `json:"date_submitted" bson:"date_submitted"`
	DocumentChecklist []string          `json:"document_checklist" bson:"document_checklist"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}

// ResetProductSelection clears every field that only makes sense for the
// previously selected module.
func (a *Application) ResetProductSelection() {
	a.ProductID = ""
	a.Rates = nil
	a.TenureApplied = nil
}

// ReferenceIDPattern matches generated reference ids, e.g. "KQZ-482913".
var ReferenceIDPattern = regexp.MustCompile(`^[A-Z]{3}-[0-9]{6}$`)

const referenceLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReferenceID draws a reference id from r (crypto/rand when nil): three
// uppercase letters, a hyphen and a number in [100000, 999999].
func NewReferenceID(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	prefix := make([]byte, 3)
	for i := range prefix {
		n, err := rand.Int(r, big.NewInt(int64(len(referenceLetters))))
		if err != nil {
			return "", fmt.Errorf("reference prefix: %w", err)
		}
		prefix[i] = referenceLetters[n.Int64()]
	}
	n, err := rand.Int(r, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("reference suffix: %w", err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n.Int64()+100000), nil
}
