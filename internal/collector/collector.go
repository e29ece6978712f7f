// Package collector records worker results in the ledger.
package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmittmann/tint"
	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/internal/bus"
	"github.com/programme-lv/feeder/internal/ledger"
)

type Collector struct {
	sub     bus.Subscriber
	store   ledger.Store
	subject string
	log     *slog.Logger
}

func New(sub bus.Subscriber, store ledger.Store, subject string, log *slog.Logger) *Collector {
	if subject == "" {
		subject = api.SubmissionExecutedSubject
	}
	return &Collector{sub: sub, store: store, subject: subject, log: log}
}

// Handle applies one result message. A later result for the same test case
// overwrites an earlier one, even if that one was final.
func (c *Collector) Handle(ctx context.Context, data []byte) error {
	res, err := api.DecodeResult(data)
	if err != nil {
		c.log.Warn("error processing result message", "size", len(data), tint.Err(err))
		return err
	}
	log := c.log.With("submission", res.SubmissionID, "test", res.TestCaseID)

	n, err := c.store.Update(ctx, ledger.OutcomeOf(res))
	if err != nil {
		log.Error("error storing result", tint.Err(err))
		return err
	}
	if n == 0 {
		log.Debug("result for unknown test case", "status", res.Status)
		return nil
	}
	if !res.Status.IsFinal() {
		log.Debug("updated progress", "status", res.Status, "rows", n)
		return nil
	}
	log.Info("updated result", "status", res.Status, "rows", n)
	return nil
}

// Run consumes results until ctx is cancelled. Bad messages and storage
// failures are logged by Handle and never end the loop.
func (c *Collector) Run(ctx context.Context) error {
	sub, err := c.sub.Subscribe(ctx, c.subject)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			c.log.Warn("error unsubscribing", "subject", c.subject, tint.Err(err))
		}
	}()
	c.log.Info("listening for results", "subject", c.subject)

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-sub.Messages():
			if !ok {
				c.log.Info("result subscription closed", "subject", c.subject)
				return nil
			}
			_ = c.Handle(ctx, data)
		}
	}
}
