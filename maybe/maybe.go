// Package maybe holds the result of a call that either produced a value or
// failed, so a zero value is never mistaken for a failure.
package maybe

type Maybe[T any] struct {
	value T
	err   error
	ok    bool
}

func Just[T any](value T) Maybe[T] {
	return Maybe[T]{value: value, ok: true}
}

// Nothing is an absent result. err records why and may be nil.
func Nothing[T any](err error) Maybe[T] {
	return Maybe[T]{err: err}
}

func (m Maybe[T]) Value() (T, bool) {
	return m.value, m.ok
}

func (m Maybe[T]) Present() bool {
	return m.ok
}

func (m Maybe[T]) Err() error {
	return m.err
}

func (m Maybe[T]) ValueOrError() (T, error) {
	return m.value, m.err
}

func (m Maybe[T]) OrElse(def T) T {
	if !m.ok {
		return def
	}
	return m.value
}
