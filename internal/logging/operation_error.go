package logging

import "fmt"

// OperationError annotates an error with the CLI operation that failed.
type OperationError struct {
	Operation string
	Target    string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Operation, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err with the operation and the job, file or
// webhook it was acting on. A nil err stays nil.
func NewOperationError(operation, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Target: target, Err: err}
}
