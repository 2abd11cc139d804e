package colibri

import (
	"github.com/colibri-db/colibri/arena"
	"github.com/colibri-db/colibri/compare"
)

type options struct {
	alloc        arena.Allocator
	logger       *Logger
	comparer     compare.Comparer
	leafCapacity int
}

// Option configures table construction.
type Option func(*options)

// WithAllocator supplies the storage arena. Tables that should share one
// arena (for example link sources and targets) pass the same allocator.
// Defaults to a fresh HeapArena.
func WithAllocator(alloc arena.Allocator) Option {
	return func(o *options) {
		o.alloc = alloc
	}
}

// WithLogger configures structured logging. Pass nil for no logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithComparer sets the string comparator used by the table's sort paths.
// It affects subsequent sort calls only; already-sorted views keep their
// order until they re-sort.
func WithComparer(c compare.Comparer) Option {
	return func(o *options) {
		if c != nil {
			o.comparer = c
		}
	}
}

// WithLeafCapacity overrides the column B-tree leaf capacity. Mostly useful
// to force deep trees in tests.
func WithLeafCapacity(n int) Option {
	return func(o *options) {
		if n >= 2 {
			o.leafCapacity = n
		}
	}
}
