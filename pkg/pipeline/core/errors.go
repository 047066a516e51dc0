package core

import (
	"errors"
	"strings"
)

// Kind classifies pipeline failures. Callers branch on Kind, never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindItemEnrichment is a per-item failure. The item still yields an outcome.
	KindItemEnrichment
	// KindResponseParse is a structured-response parse failure that may still be repaired.
	KindResponseParse
	// KindBatchUnrecoverable discards every record of one batch.
	KindBatchUnrecoverable
	// KindTelemetryUnavailable is a known side-channel failure that is safe to ignore.
	KindTelemetryUnavailable
	// KindTransientService marks 429/5xx/timeouts from a remote service. Recorded, not retried.
	KindTransientService
	// KindConfiguration is only raised at startup.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindItemEnrichment:
		return "item_enrichment"
	case KindResponseParse:
		return "response_parse"
	case KindBatchUnrecoverable:
		return "batch_unrecoverable"
	case KindTelemetryUnavailable:
		return "telemetry_unavailable"
	case KindTransientService:
		return "transient_service"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error tags an underlying error with a Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "pipeline error"
	}
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	} else {
		parts = append(parts, e.Kind.String())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// E builds a tagged error. A nil err still yields a non-nil *Error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// TelemetryUnavailable wraps err as the known non-fatal telemetry failure.
func TelemetryUnavailable(err error) error {
	return &Error{Kind: KindTelemetryUnavailable, Op: "telemetry", Err: err}
}

// KindOf returns the Kind of the outermost tagged error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether any tagged error in err's tree has the given kind. Joined
// errors are searched branch by branch.
func IsKind(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == kind {
			return true
		}
		return IsKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, branch := range e.Unwrap() {
			if IsKind(branch, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsKind(e.Unwrap(), kind)
	}
	return false
}
