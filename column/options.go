package column

// Options configures column construction.
type Options struct {
	// LeafCapacity bounds leaf size and inner-node fanout. Mostly useful to
	// force deep trees in tests; production columns keep the default.
	LeafCapacity int
}

// Option mutates Options.
type Option func(*Options)

// WithLeafCapacity overrides the B-tree leaf capacity. Values below 2 are
// ignored.
func WithLeafCapacity(n int) Option {
	return func(o *Options) {
		if n >= 2 {
			o.LeafCapacity = n
		}
	}
}

func applyOptions(optFns []Option) Options {
	o := Options{LeafCapacity: DefaultLeafCapacity}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
