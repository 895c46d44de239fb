package printing

import (
	"strings"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// PayloadKind describes what a print job carries
type PayloadKind string

const (
	// PayloadMarkup is a finished HTML bill
	PayloadMarkup PayloadKind = "MARKUP"
	// PayloadText is plain text ready for the spooler
	PayloadText PayloadKind = "TEXT"
)

// IsValid checks if the PayloadKind is a valid value
func (k PayloadKind) IsValid() bool {
	return k == PayloadMarkup || k == PayloadText
}

// String returns the string representation of PayloadKind
func (k PayloadKind) String() string {
	return string(k)
}

// PrintJob is a single print request. It lives only for the duration of one
// dispatch and is never persisted.
type PrintJob struct {
	ID            uuid.UUID
	Payload       string
	PayloadKind   PayloadKind
	TargetPrinter string // Explicit printer; empty means the OS default
	CreatedAt     time.Time
}

// NewPrintJob creates a new print job
func NewPrintJob(payload string, kind PayloadKind, targetPrinter string) (*PrintJob, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid payload kind")
	}

	return &PrintJob{
		ID:            uuid.New(),
		Payload:       payload,
		PayloadKind:   kind,
		TargetPrinter: strings.TrimSpace(targetPrinter),
		CreatedAt:     time.Now(),
	}, nil
}

// HasExplicitTarget reports whether the caller named a printer
func (j *PrintJob) HasExplicitTarget() bool {
	return j.TargetPrinter != ""
}

// IsMarkup reports whether the payload is HTML markup
func (j *PrintJob) IsMarkup() bool {
	return j.PayloadKind == PayloadMarkup
}
