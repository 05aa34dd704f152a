// Package delivery hands completed intake submissions to storage, the text
// export and the outbound relay.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kiliankoe/cdrintake/internal/intake"
	"github.com/kiliankoe/cdrintake/internal/relay"
	"github.com/kiliankoe/cdrintake/internal/store"
	"github.com/rs/zerolog/log"
)

type Option func(*Dispatcher)

// WithExport appends every submission to file. An empty file disables export.
func WithExport(file string, steps []intake.StepDefinition) Option {
	return func(d *Dispatcher) {
		d.exportFile = file
		d.steps = steps
	}
}

func WithRelay(r relay.Relay, timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.relay = r
		d.relayTimeout = timeout
	}
}

type Dispatcher struct {
	store        store.Store
	relay        relay.Relay
	relayTimeout time.Duration
	exportFile   string
	steps        []intake.StepDefinition

	exportMu sync.Mutex
	wg       sync.WaitGroup
}

func NewDispatcher(st store.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: st, steps: intake.DefaultSteps(), relayTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch stores sub and then exports and relays it. Only a storage failure
// is returned; export and relay failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, sub intake.Submission) error {
	if err := d.store.SaveSubmission(ctx, sub); err != nil {
		return fmt.Errorf("store submission: %w", err)
	}
	log.Info().Str("session", sub.SessionID).Str("submission", sub.ID).Msg("submission stored")

	if d.exportFile != "" {
		d.exportMu.Lock()
		err := intake.ExportSubmission(sub, d.steps, d.exportFile)
		d.exportMu.Unlock()
		if err != nil {
			log.Error().Err(err).Str("submission", sub.ID).Msg("failed to export submission")
		} else {
			log.Info().Str("submission", sub.ID).Str("file", d.exportFile).Msg("exported submission")
		}
	}

	if d.relay != nil {
		d.wg.Add(1)
		go func(sub intake.Submission) {
			defer d.wg.Done()
			rctx, cancel := context.WithTimeout(context.Background(), d.relayTimeout)
			defer cancel()
			if err := d.relay.Deliver(rctx, sub); err != nil {
				log.Error().Err(err).Str("submission", sub.ID).Msg("relay failed")
				return
			}
			log.Info().Str("submission", sub.ID).Msg("submission relayed")
		}(sub)
	}
	return nil
}

// Wait blocks until in-flight relays finish.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) Store() store.Store { return d.store }

// Complete dispatches the submission carried by the snapshot of a completing
// advance. Other snapshots are ignored.
func (d *Dispatcher) Complete(ctx context.Context, snap intake.Snapshot) (bool, error) {
	if !snap.JustCompleted || snap.Submission == nil {
		return false, nil
	}
	return true, d.Dispatch(ctx, *snap.Submission)
}

// Resubmit dispatches the submission of a completed session that is not yet
// in the store, typically after a failed completing advance. It reports
// whether a dispatch happened; a stored submission is left alone.
func (d *Dispatcher) Resubmit(ctx context.Context, sess *intake.Session) (intake.Submission, bool, error) {
	sub, err := sess.Submission()
	if err != nil {
		return intake.Submission{}, false, err
	}
	_, err = d.store.GetSubmission(ctx, sub.ID)
	switch {
	case err == nil:
		return sub, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return sub, false, fmt.Errorf("look up submission: %w", err)
	}
	log.Info().Str("session", sess.ID).Str("submission", sub.ID).Msg("resubmitting")
	return sub, true, d.Dispatch(ctx, sub)
}
