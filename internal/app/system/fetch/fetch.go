// Package fetch gives lower-level reads a tri-state result so callers can
// tell "nothing there" apart from "could not look".
package fetch

// State is the outcome of a fetch.
type State int

const (
	Empty State = iota
	Data
	Failed
)

func (s State) String() string {
	switch s {
	case Data:
		return "data"
	case Failed:
		return "failed"
	default:
		return "empty"
	}
}

// Result carries the items of a fetch together with its State.
// Items is nil unless State is Data.
type Result[T any] struct {
	Items []T
	State State
	Err   error
}

// Of classifies a (items, err) pair as returned by the stores.
func Of[T any](items []T, err error) Result[T] {
	switch {
	case err != nil:
		return Result[T]{State: Failed, Err: err}
	case len(items) == 0:
		return Result[T]{State: Empty}
	default:
		return Result[T]{Items: items, State: Data}
	}
}

// Ok reports whether the fetch did not fail. Empty is ok.
func (r Result[T]) Ok() bool { return r.State != Failed }

// OrEmpty returns the items, or nil when the fetch was empty or failed.
func (r Result[T]) OrEmpty() []T {
	if r.State != Data {
		return nil
	}
	return r.Items
}
