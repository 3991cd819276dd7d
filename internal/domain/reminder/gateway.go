// internal/domain/reminder/gateway.go
package reminder

import (
	"context"
	"errors"
	"fmt"
)

// ErrGateway is matched by every *GatewayError via errors.Is.
var ErrGateway = errors.New("reminder gateway unavailable")

// Gateway returns the reminders that are currently due.
// It does no filtering or deduplication: the same occurrence may be returned
// by consecutive calls until the source itself moves past the scheduled time.
type Gateway interface {
	FetchDue(ctx context.Context) ([]Occurrence, error)
}

// GatewayError is returned by a Gateway when the remote call can not complete.
type GatewayError struct {
	Op  string // operation or remote method, e.g. "reminders.pending"
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s failed", e.Op)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGateway) match any gateway failure.
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// NewGatewayError wraps err as a failure of op. A nil err stays nil.
func NewGatewayError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}

// GatewayFunc adapts a plain function to the Gateway interface.
type GatewayFunc func(ctx context.Context) ([]Occurrence, error)

func (f GatewayFunc) FetchDue(ctx context.Context) ([]Occurrence, error) { return f(ctx) }
