package manager

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/quicky/internal/definition"
	"github.com/dshills/quicky/internal/metrics"
	"github.com/dshills/quicky/internal/value"
)

// Publisher writes the signals of a definition set to a Sink.
type Publisher struct {
	sink    Sink
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewPublisher creates a publisher for sink.
func NewPublisher(sink Sink, logger zerolog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{sink: sink, logger: logger, metrics: m}
}

type publication struct {
	name  string
	value value.Value
}

// Publish computes and publishes the signals of defs as seen from resource.
//
// Publications run concurrently and independently: a failure does not stop
// the others, every failure is logged, and Publish returns only after all
// of them finished. The first failure is returned.
func (p *Publisher) Publish(ctx context.Context, store Store, defs []definition.Definition, resource string) error {
	var batch []publication
	for _, def := range defs {
		ev := evaluate(store, def, resource)
		batch = append(batch, publication{name: def.ContextKey, value: ev.current})
		for i, opt := range def.Options {
			batch = append(batch, publication{
				name:  def.OptionSignal(opt),
				value: value.Bool(ev.isCurrent(i)),
			})
		}
	}

	cycle := uuid.NewString()
	logger := p.logger.With().Str("cycle", cycle).Logger()
	logger.Debug().Int("definitions", len(defs)).Int("signals", len(batch)).Msg("publishing signals")

	// A plain Group: one failure must not cancel the rest.
	var g errgroup.Group
	for _, pub := range batch {
		pub := pub
		g.Go(func() error {
			err := p.sink.Publish(ctx, pub.name, pub.value)
			p.metrics.RecordPublication(err)
			if err != nil {
				logger.Error().Err(err).Str("signal", pub.name).Msg("failed to publish signal")
			}
			return err
		})
	}
	return g.Wait()
}
