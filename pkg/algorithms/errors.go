package algorithms

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNotConverged   = errors.New("iteration cap reached before convergence")
	ErrDisconnected   = errors.New("graph is not strongly connected")
	ErrDiverged       = errors.New("iteration diverged")
	ErrUnknownMetric  = errors.New("unknown centrality metric")
	ErrDuplicateName  = errors.New("scorer name already registered")
	ErrUnknownMethod  = errors.New("unknown link prediction method")
	ErrUnknownMode    = errors.New("unknown candidate mode")
	ErrUnknownCommAlg = errors.New("unknown community algorithm")
)

// ConvergenceWarning is a non-fatal condition attached to a result. The
// returned values are still usable.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Residual   float64 // last L1 change, or unreachable-node count for closeness
	Cause      error
}

func (w *ConvergenceWarning) Error() string {
	if errors.Is(w.Cause, ErrDisconnected) {
		return fmt.Sprintf("%s: %v (%d nodes cannot reach every other node)", w.Algorithm, w.Cause, int(w.Residual))
	}
	return fmt.Sprintf("%s: %v after %d iterations (residual %.3g)", w.Algorithm, w.Cause, w.Iterations, w.Residual)
}

func (w *ConvergenceWarning) Unwrap() error { return w.Cause }

// NotConverged reports an iterative algorithm that hit its cap.
func NotConverged(algorithm string, iterations int, residual float64) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Residual: residual, Cause: ErrNotConverged}
}

// DisconnectedGraphWarning reports closeness computed on a graph where some
// nodes cannot reach all others.
func DisconnectedGraphWarning(algorithm string, unreachable int) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Residual: float64(unreachable), Cause: ErrDisconnected}
}

// ConvergenceError is fatal to the metric that produced it.
type ConvergenceError struct {
	Algorithm  string
	Iterations int
	Reason     string
	Cause      error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s failed after %d iterations: %s: %v", e.Algorithm, e.Iterations, e.Reason, e.Cause)
}

func (e *ConvergenceError) Unwrap() error { return e.Cause }

// CancellationError is returned when a computation stops because its context
// was cancelled or its deadline passed.
type CancellationError struct {
	Stage string
	Cause error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("%s cancelled: %v", e.Stage, e.Cause)
}

func (e *CancellationError) Unwrap() error { return e.Cause }

// IsCancellation reports whether err stems from context cancellation.
func IsCancellation(err error) bool {
	var ce *CancellationError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// cancelled wraps context errors in a CancellationError for stage and passes
// other errors through.
func cancelled(stage string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CancellationError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &CancellationError{Stage: stage, Cause: err}
	}
	return err
}
