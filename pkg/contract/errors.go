package contract

import "errors"

// Minimal error taxonomy; callers match with errors.Is, never on strings.
var (
	// ErrConfig: configuration missing, malformed or inconsistent.
	ErrConfig = errors.New("config invalid")
	// ErrInvalidInput: numeric input outside the domain of an operation (p_T <= 0, NaN, ...).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownChannel: a flavour pair with no matrix element; never treated as a zero contribution.
	ErrUnknownChannel = errors.New("unknown parton channel")
	// ErrPDFSetNotFound: the named PDF set is neither built in nor on the LHAPDF search path.
	ErrPDFSetNotFound = errors.New("pdf set not found")
	// ErrPDFFormat: PDF metadata or grid data could not be parsed.
	ErrPDFFormat = errors.New("pdf data malformed")
	// ErrPathInvalid: an artifact id maps outside the output root.
	ErrPathInvalid = errors.New("path invalid")
)
