package checker

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies why a check failed.
type Kind string

const (
	KindNone     Kind = ""
	KindNetwork  Kind = "network"
	KindStatus   Kind = "status"
	KindDecode   Kind = "decode"
	KindField    Kind = "field"
	KindMismatch Kind = "mismatch"
	KindHeader   Kind = "header"
	KindCanceled Kind = "canceled"
)

// Failure is the error a check returns when its expectation is not met.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func failf(kind Kind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Kind     Kind
	ID       string // record created by the check, if any
	Duration time.Duration
}

func newResult(name string, detail string, id string, err error, took time.Duration) Result {
	r := Result{Name: name, ID: id, Duration: took, Detail: detail}
	if err == nil {
		r.Passed = true
		return r
	}

	var f *Failure
	switch {
	case errors.As(err, &f):
		r.Kind = f.Kind
		r.Detail = f.Message
		if f.Err != nil {
			r.Detail = fmt.Sprintf("%s: %v", f.Message, f.Err)
		}
	case errors.Is(err, errCanceled):
		r.Kind = KindCanceled
		r.Detail = err.Error()
	default:
		r.Kind = KindNetwork
		r.Detail = err.Error()
	}
	return r
}

// Report collects results in execution order.
type Report struct {
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
}

// AllPassed reports whether every check passed.
func (r *Report) AllPassed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// ExitCode is 0 when every check passed and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.AllPassed() {
		return 0
	}
	return 1
}

// Failed returns the failing results in execution order.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Get returns the result for the named check.
func (r *Report) Get(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}
