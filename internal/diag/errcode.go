package diag

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// Code is the coarse error class used in logs and metrics.
// It is independent of the process exit code.
type Code string

const (
	CodeUnknown      Code = "unknown"
	CodeConfig       Code = "config"
	CodeInvalidInput Code = "invalid_input"
	CodeChannel      Code = "channel"
	CodePDF          Code = "pdf"
	CodeCancel       Code = "cancel"
	CodeIO           Code = "io"
)

// Classify matches sentinel errors and standard error types only; messages
// are never inspected.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, contract.ErrConfig):
		return CodeConfig
	case errors.Is(err, contract.ErrUnknownChannel):
		return CodeChannel
	case errors.Is(err, contract.ErrPDFSetNotFound) || errors.Is(err, contract.ErrPDFFormat):
		return CodePDF
	case errors.Is(err, contract.ErrInvalidInput) || errors.Is(err, contract.ErrPathInvalid):
		return CodeInvalidInput
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC returns the current time as RFC3339 UTC.
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
