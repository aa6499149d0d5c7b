package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrorPolicy decides what happens to persistence failures.
type ErrorPolicy int

const (
	// ErrorPolicyLog logs failures and otherwise ignores them.
	ErrorPolicyLog ErrorPolicy = iota
	// ErrorPolicySilent drops failures.
	ErrorPolicySilent
	// ErrorPolicyPropagate returns failures from Load, Flush and Close
	// and hands them to the error handler.
	ErrorPolicyPropagate
)

func (p ErrorPolicy) String() string {
	switch p {
	case ErrorPolicyLog:
		return "log"
	case ErrorPolicySilent:
		return "silent"
	case ErrorPolicyPropagate:
		return "propagate"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "log":
		return ErrorPolicyLog, nil
	case "silent":
		return ErrorPolicySilent, nil
	case "propagate":
		return ErrorPolicyPropagate, nil
	default:
		return 0, fmt.Errorf("error policy[%s] is not valid", s)
	}
}

// WriteMode decides how snapshots reach the storage.
type WriteMode int

const (
	// WriteModeConcurrent starts every write on its own goroutine. Writes may
	// finish out of order and the last one to finish wins.
	WriteModeConcurrent WriteMode = iota
	// WriteModeSerial applies writes one at a time in invocation order.
	// Snapshots queued behind a running write collapse into the latest one.
	WriteModeSerial
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeConcurrent:
		return "concurrent"
	case WriteModeSerial:
		return "serial"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

func ParseWriteMode(s string) (WriteMode, error) {
	switch s {
	case "concurrent":
		return WriteModeConcurrent, nil
	case "serial":
		return WriteModeSerial, nil
	default:
		return 0, fmt.Errorf("write mode[%s] is not valid", s)
	}
}

type Option func(*Store)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

func WithWriteMode(mode WriteMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// WithErrorHandler is called with every failure under ErrorPolicyPropagate.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}
