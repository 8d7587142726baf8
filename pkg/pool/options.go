package pool

import (
	"runtime"
	"time"
)

const DefaultTimeout = 20 * time.Second

// Options configures a Pool. All fields are fixed once the pool is built.
type Options[A, V any] struct {
	Timeout      time.Duration
	Verbosity    Level
	Stream       bool
	Callback     func(Result[A, V])
	StoreResults bool
	Initializer  Initializer
	Workers      int
	Reporter     Reporter
}

type Option[A, V any] func(*Options[A, V])

func defaultOptions[A, V any]() Options[A, V] {
	return Options[A, V]{
		Timeout:      DefaultTimeout,
		Verbosity:    LevelInfo,
		StoreResults: true,
		Workers:      runtime.NumCPU(),
		Reporter:     discardReporter{},
	}
}

// WithTimeout sets the bounded wait used on every queue receive.
func WithTimeout[A, V any](d time.Duration) Option[A, V] {
	return func(o *Options[A, V]) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

func WithVerbosity[A, V any](l Level) Option[A, V] {
	return func(o *Options[A, V]) {
		o.Verbosity = l
	}
}

// WithStream enables streaming mode: the caller must call Lock once every
// task has been submitted.
func WithStream[A, V any](stream bool) Option[A, V] {
	return func(o *Options[A, V]) {
		o.Stream = stream
	}
}

// WithCallback registers a function called with every result, in arrival
// order, on the controller goroutine.
func WithCallback[A, V any](fn func(Result[A, V])) Option[A, V] {
	return func(o *Options[A, V]) {
		o.Callback = fn
	}
}

func WithStoreResults[A, V any](store bool) Option[A, V] {
	return func(o *Options[A, V]) {
		o.StoreResults = store
	}
}

func WithInitializer[A, V any](fn Initializer) Option[A, V] {
	return func(o *Options[A, V]) {
		o.Initializer = fn
	}
}

func WithWorkers[A, V any](n int) Option[A, V] {
	return func(o *Options[A, V]) {
		if n > 0 {
			o.Workers = n
		}
	}
}

func WithReporter[A, V any](r Reporter) Option[A, V] {
	return func(o *Options[A, V]) {
		if r != nil {
			o.Reporter = r
		}
	}
}
