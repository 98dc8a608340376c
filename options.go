package fhirmodel

import (
	"runtime"
	"sync/atomic"
)

// DefaultMaxStringLength is the maximum length of a FHIR string value (1MB).
const DefaultMaxStringLength = 1024 * 1024

// Option configures model construction and constraint evaluation.
type Option func(*Options)

// Options holds all configuration for builders and the constraint validator.
type Options struct {
	// Construction checks
	CheckReferenceTypes bool
	CheckControlChars   bool
	MaxStringLength     int

	// Constraint evaluation
	IncludeWarnings bool
	StrictMode      bool
	MaxErrors       int

	// Performance
	WorkerCount         int
	ExpressionCacheSize int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		CheckReferenceTypes: true,
		CheckControlChars:   true,
		MaxStringLength:     DefaultMaxStringLength,

		IncludeWarnings: true,
		StrictMode:      false,
		MaxErrors:       0, // unlimited

		WorkerCount:         runtime.NumCPU(),
		ExpressionCacheSize: 2000,
	}
}

// Apply returns a copy of o with opts applied.
func (o *Options) Apply(opts ...Option) *Options {
	cp := *o
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

var defaults atomic.Pointer[Options]

func init() {
	defaults.Store(DefaultOptions())
}

// Defaults returns the process-wide options used when a builder or validator
// is not given explicit options. The returned value must not be modified.
func Defaults() *Options {
	return defaults.Load()
}

// SetDefaults replaces the process-wide options with DefaultOptions plus opts.
func SetDefaults(opts ...Option) {
	defaults.Store(DefaultOptions().Apply(opts...))
}

// --- Construction Options ---

// WithReferenceTypeCheck enables checking literal references against the
// target types declared for a Reference field.
func WithReferenceTypeCheck(enable bool) Option {
	return func(o *Options) {
		o.CheckReferenceTypes = enable
	}
}

// WithControlCharCheck rejects string values containing control characters
// other than tab, carriage return and line feed.
func WithControlCharCheck(enable bool) Option {
	return func(o *Options) {
		o.CheckControlChars = enable
	}
}

// WithMaxStringLength sets the maximum accepted string length.
func WithMaxStringLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxStringLength = n
		}
	}
}

// --- Evaluation Options ---

// WithWarnings controls whether warning-level constraint violations are reported.
func WithWarnings(enable bool) Option {
	return func(o *Options) {
		o.IncludeWarnings = enable
	}
}

// WithStrictMode treats warning-level constraint violations as errors.
func WithStrictMode(enable bool) Option {
	return func(o *Options) {
		o.StrictMode = enable
	}
}

// WithMaxErrors sets the maximum number of errors before evaluation stops.
// Use 0 for unlimited.
func WithMaxErrors(max int) Option {
	return func(o *Options) {
		o.MaxErrors = max
	}
}

// --- Performance Options ---

// WithWorkerCount sets the number of goroutines used for batch evaluation.
// If n <= 0, runtime.NumCPU() is used.
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.WorkerCount = n
	}
}

// WithExpressionCacheSize sets the compiled expression cache size.
func WithExpressionCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ExpressionCacheSize = size
		}
	}
}

// --- Presets ---

// LenientOptions disables the optional construction checks.
func LenientOptions() []Option {
	return []Option{
		WithReferenceTypeCheck(false),
		WithControlCharCheck(false),
	}
}

// StrictOptions enables every check and treats warnings as errors.
func StrictOptions() []Option {
	return []Option{
		WithReferenceTypeCheck(true),
		WithControlCharCheck(true),
		WithWarnings(true),
		WithStrictMode(true),
	}
}
