// Package compare supplies the pluggable string comparator used by every
// column and view sort path. Strategies are threaded explicitly through the
// structures that sort; there is no process-wide switch, so already-sorted
// views are never retroactively re-ordered.
package compare

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparer orders strings for sorting. Null handling is the caller's job;
// a null sorts before any string under every strategy.
type Comparer interface {
	// Less reports whether a sorts before b.
	Less(a, b string) bool
}

type bytewise struct{}

func (bytewise) Less(a, b string) bool { return a < b }

// Bytewise returns the default byte-order comparator.
func Bytewise() Comparer { return bytewise{} }

type collated struct {
	c *collate.Collator
}

func (l collated) Less(a, b string) bool { return l.c.CompareString(a, b) < 0 }

// Collated returns a locale-aware comparator for the given language.
func Collated(tag language.Tag) Comparer {
	return collated{c: collate.New(tag)}
}

type funcComparer func(a, b string) bool

func (f funcComparer) Less(a, b string) bool { return f(a, b) }

// Func wraps a user-supplied less function as a Comparer.
func Func(less func(a, b string) bool) Comparer { return funcComparer(less) }
