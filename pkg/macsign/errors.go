package macsign

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOptions = errors.New("invalid signing options")
	ErrNoIdentity     = errors.New("no identity found for signing")
	ErrPreSign        = errors.New("pre-sign stage failed")
	ErrSigning        = errors.New("signing failed")
	ErrVerification   = errors.New("signature verification failed")
	ErrGatekeeper     = errors.New("gatekeeper assessment rejected the bundle")
)

// PipelineError is the failure type surfaced by every stage of a signing
// run. Kind is one of the sentinel errors above; Path names the offending
// file when one is known; Msg carries tool diagnostics or detail text.
type PipelineError struct {
	Kind error
	Path string
	Msg  string
	Err  error
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Path != "" {
		s += ": " + e.Path
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *PipelineError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func invalidf(format string, args ...any) error {
	return &PipelineError{Kind: ErrInvalidOptions, Msg: fmt.Sprintf(format, args...)}
}
