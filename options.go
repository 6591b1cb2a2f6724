package versioning

import (
	"github.com/rs/zerolog"
)

// Option configures Extract, Apply, Copy and the Manager.
type Option interface {
	apply(c *config)
}

type config struct {
	ignoredPaths map[string]bool
	copier       Copier
	logger       zerolog.Logger
	concurrency  int
}

func newConfig(opts []Option) *config {
	c := &config{
		ignoredPaths: make(map[string]bool),
		copier:       CloneCopier,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(c)
		}
	}
	return c
}

func (c *config) ignored(p Path) bool {
	return len(c.ignoredPaths) > 0 && c.ignoredPaths[p.String()]
}

type ignorePathOption string

func (o ignorePathOption) apply(c *config) {
	path := string(o)
	if p, _, err := ParsePath(path); err == nil {
		path = p.String()
	}
	c.ignoredPaths[path] = true
}

// IgnorePath returns an option that tells Extract to skip the given path and
// everything below it, additions and deletions included. The path uses the
// FieldPath grammar (e.g. "stringOne", "listObjects[3].name",
// "mapSimpleObjects.k"). Elements of Lists and Sets of structs are matched by
// identity, so "listObjects[3]" is the element whose identity is 3 wherever it
// sits. Leaf list members are matched by position and map members by key.
func IgnorePath(path string) Option {
	return ignorePathOption(path)
}

type copierOption struct {
	copier Copier
}

func (o copierOption) apply(c *config) {
	if o.copier != nil {
		c.copier = o.copier
	}
}

// WithCopier selects the deep copy strategy.
func WithCopier(copier Copier) Option {
	return copierOption{copier: copier}
}

type loggerOption struct {
	logger zerolog.Logger
}

func (o loggerOption) apply(c *config) {
	c.logger = o.logger
}

// WithLogger sets the logger used by the Manager. The default discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return loggerOption{logger: logger}
}

type concurrencyOption int

func (o concurrencyOption) apply(c *config) {
	c.concurrency = int(o)
}

// WithConcurrency limits the number of batch sub-tasks running at once. Zero
// or a negative value means no limit.
func WithConcurrency(n int) Option {
	return concurrencyOption(n)
}
