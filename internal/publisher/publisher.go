// Package publisher periodically puts a random catalog submission on the
// bus and records a pending ledger row for each of its test cases.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/internal/bus"
	"github.com/programme-lv/feeder/internal/catalog"
	"github.com/programme-lv/feeder/internal/ledger"
	"github.com/programme-lv/feeder/internal/scheduler"
)

const DefaultInterval = time.Second

var ErrPublish = errors.New("failed to publish submission")

type Publisher struct {
	catalog *catalog.Catalog
	bus     bus.Publisher
	store   ledger.Store
	subject string
	log     *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a publisher. A nil rnd is replaced by a randomly seeded source.
func New(cat *catalog.Catalog, pub bus.Publisher, store ledger.Store, subject string, log *slog.Logger, rnd *rand.Rand) *Publisher {
	if subject == "" {
		subject = api.SubmissionCreatedSubject
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Publisher{
		catalog: cat,
		bus:     pub,
		store:   store,
		subject: subject,
		log:     log,
		rnd:     rnd,
	}
}

func (p *Publisher) pick() api.Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.catalog.Pick(p.rnd)
}

// PublishOnce performs a single tick. Rows are only recorded once the bus
// has accepted the message. A ledger failure halfway through leaves the
// rows already written in place and skips the rest.
func (p *Publisher) PublishOnce(ctx context.Context) (api.Submission, error) {
	sub := p.pick()
	log := p.log.With("submission", sub.ID, "file", sub.FileName)

	data, err := api.EncodeSubmission(sub)
	if err != nil {
		log.Error("error encoding submission", tint.Err(err))
		return sub, fmt.Errorf("%w %s: %w", ErrPublish, sub.ID, err)
	}
	if err := p.bus.Publish(ctx, p.subject, data); err != nil {
		log.Error("error publishing submission", tint.Err(err))
		return sub, fmt.Errorf("%w %s: %w", ErrPublish, sub.ID, err)
	}

	for _, row := range ledger.PendingRows(sub) {
		if err := p.store.Insert(ctx, row); err != nil {
			log.Error("error recording pending test case", "test", row.TestCaseID, tint.Err(err))
			return sub, err
		}
		log.Debug("published submission test case", "test", row.TestCaseID)
	}
	log.Info("published submission", "tests", len(sub.TestCases))
	return sub, nil
}

// Run publishes one submission per interval until ctx is cancelled.
// Failed ticks are logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) error {
	s, err := scheduler.New(interval, func(ctx context.Context) {
		_, _ = p.PublishOnce(ctx)
	}, p.log)
	if err != nil {
		return err
	}
	p.log.Info("publishing submissions", "subject", p.subject, "interval", interval, "catalog", p.catalog.Len())
	return s.Run(ctx)
}
