package story

import (
	"io"
	"math/rand"
	"time"

	"github.com/Seednode/storybox/catalog"
	"github.com/Seednode/storybox/election"
	"github.com/sirupsen/logrus"
)

// Rand is the subset of *math/rand.Rand a session draws from.
type Rand interface {
	Intn(n int) int
}

const defaultPromptWords = 3

type options struct {
	catalog     catalog.Catalog
	newRand     func() Rand
	logger      logrus.FieldLogger
	engineOpts  []election.Option
	now         func() time.Time
	promptWords int
}

type Option func(*options)

func WithCatalog(c catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithRand sets the factory for each session's random source, used to pick
// the editor and the editor's prompt words.
func WithRand(newRand func() Rand) Option {
	return func(o *options) {
		o.newRand = newRand
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngineOptions configures every session's election engine.
func WithEngineOptions(opts ...election.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithPromptWords sets how many words the editor receives.
func WithPromptWords(n int) Option {
	return func(o *options) {
		o.promptWords = n
	}
}

func buildOptions(opts []Option) options {
	o := options{
		newRand: func() Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now:         time.Now,
		promptWords: defaultPromptWords,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.catalog == nil {
		o.catalog = catalog.Default()
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}

	return o
}
