package mission

import "errors"

var (
	// ErrNotFound reports an absent template, player or mission.
	ErrNotFound = errors.New("mission: not found")
	// ErrPolicyViolation reports an unmet level requirement at assignment.
	ErrPolicyViolation = errors.New("mission: policy violation")
	// ErrInvalidDelta reports a non-positive progress increment.
	ErrInvalidDelta = errors.New("mission: progress delta must be positive")
	// ErrTransientStore matches every *StoreError. The failed operation was
	// rolled back in full and may be retried.
	ErrTransientStore = errors.New("mission: transient store failure")
)

// errNotActive aborts a completion transaction whose CAS matched no row.
var errNotActive = errors.New("mission: not active")

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "mission: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrTransientStore }

// classify passes business errors through and wraps everything else.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPolicyViolation), errors.Is(err, ErrInvalidDelta):
		return err
	default:
		return &StoreError{Op: op, Err: err}
	}
}
