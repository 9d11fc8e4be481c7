package catalog

// DefaultMaxDepth bounds how deep a catalog tree may nest before parsing gives up.
const DefaultMaxDepth = 32

type options struct {
	maxDepth int
}

// Option configures catalog parsing.
type Option func(*options)

// WithMaxDepth overrides DefaultMaxDepth. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
