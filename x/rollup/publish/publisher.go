package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Publisher is the outer state machine: gate -> submit-batch ->
// confirm-batch -> finalize. It owns the interrupt flag and guarantees at
// most one Publish call is active at a time.
type Publisher struct {
	deps Dependencies
	cfg  Config
	in   *Interrupter

	gate      *Gate
	submitter *Submitter
	confirmer *Confirmer

	mu         sync.Mutex
	publishing bool
}

// NewPublisher wires the Gate, Submitter, and Confirmer over a shared
// Interrupter and the given dependencies/config.
func NewPublisher(cfg Config, opts ...Option) (*Publisher, error) {
	deps := Dependencies{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	if deps.Chain == nil {
		return nil, fmt.Errorf("chain client is required")
	}
	if deps.Database == nil {
		return nil, fmt.Errorf("rollup database is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid publisher config: %w", err)
	}

	in := NewInterrupter()
	log := deps.Logger.With().Str("component", "publish.publisher").Logger()

	return &Publisher{
		deps:      deps,
		cfg:       cfg,
		in:        in,
		gate:      NewGate(deps.Chain, cfg, in, deps.Metrics, log),
		submitter: NewSubmitter(deps.Chain, cfg, in, log),
		confirmer: NewConfirmer(deps.Chain, cfg, in, log),
	}, nil
}

// Interrupt idempotently signals any in-progress Publish call to return
// ABORTED as soon as possible.
func (p *Publisher) Interrupt() {
	p.in.Interrupt()
}

// ClearInterrupt must be called before the next Publish after an
// interrupted one.
func (p *Publisher) ClearInterrupt() {
	p.in.Clear()
}

// Publish takes a locally-aggregated rollup through gate, submission,
// and confirmation until every transaction in the batch is confirmed,
// or returns ABORTED on interrupt, receipt timeout, or fatal revert.
func (p *Publisher) Publish(ctx context.Context, rollup Rollup, estimatedGas uint64) (Outcome, error) {
	if !p.tryAcquire() {
		return ABORTED, &PublishError{
			Kind:     ErrKindConcurrentPublish,
			Message:  "publish already in progress for this publisher instance",
			RollupID: rollup.ID,
		}
	}
	defer p.release()

	log := p.deps.Logger.With().Str("component", "publish.publisher").Str("rollup_id", rollup.ID).Logger()

	if p.in.IsSet() {
		return ABORTED, nil
	}

	stopTimer := p.deps.Metrics.PublishTimer()
	finished := false
	defer func() {
		if !finished {
			stopTimer()
		}
	}()

	unit, err := p.deps.Chain.BuildBatch(ctx, rollup)
	if err != nil {
		log.Error().Err(err).Msg("failed to build batch")
		p.deps.Metrics.RecordOutcome(ABORTED)
		return ABORTED, nil
	}

	if err := p.deps.Database.SetCallData(ctx, rollup.ID, unit.RollupProofTx); err != nil {
		log.Error().Err(err).Msg("failed to persist call data")
		p.deps.Metrics.RecordOutcome(ABORTED)
		return ABORTED, nil
	}

	statuses := buildStatusList(unit)

	accounts, err := p.deps.Chain.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		log.Error().Err(err).Msg("failed to read signer accounts")
		p.deps.Metrics.RecordOutcome(ABORTED)
		return ABORTED, nil
	}
	signer := accounts[0]

	for {
		if p.in.IsSet() {
			p.deps.Metrics.RecordOutcome(ABORTED)
			return ABORTED, nil
		}

		if !p.gate.AwaitClear(ctx, signer, estimatedGas) {
			p.deps.Metrics.RecordOutcome(ABORTED)
			return ABORTED, nil
		}

		nonce, err := p.deps.Chain.NonceAt(ctx, signer)
		if err != nil {
			log.Error().Err(err).Msg("failed to read signer nonce")
			if p.in.SleepOrInterrupted(ctx, p.cfg.SendRetryInterval) {
				p.deps.Metrics.RecordOutcome(ABORTED)
				return ABORTED, nil
			}
			continue
		}

		proofStatus := statuses[len(statuses)-1]
		proofHashBefore := proofStatus.TxHash

		if !p.submitter.Submit(ctx, statuses, nonce) {
			p.deps.Metrics.RecordOutcome(ABORTED)
			return ABORTED, nil
		}

		proofDispatchedNewHash := proofStatus.TxHash != nil &&
			(proofHashBefore == nil || *proofHashBefore != *proofStatus.TxHash)

		// Persist the final transaction's hash whenever the rollup-proof
		// transaction dispatches under a new hash, so a restarting
		// process never locates a hash that can no longer mine.
		if proofDispatchedNewHash {
			if err := p.deps.Database.ConfirmSent(ctx, rollup.ID, *proofStatus.TxHash); err != nil {
				log.Error().Err(err).Msg("failed to persist sent status")
			}
		}

		switch p.confirmer.Confirm(ctx, statuses) {
		case allConfirmed:
			finished = true
			stopTimer()
			p.deps.Metrics.RecordOutcome(PUBLISHED)
			return PUBLISHED, nil
		case abortBatch:
			p.deps.Metrics.RecordOutcome(ABORTED)
			return ABORTED, nil
		case retryBatch:
			p.deps.Metrics.RecordRetry("non_fatal_revert")
			continue
		}
	}
}

// buildStatusList constructs the ordered, mutable per-transaction
// status list for one publish attempt: broadcast transactions first in
// original order, then the rollup-proof transaction last.
func buildStatusList(unit RollupSubmissionUnit) []*TxStatus {
	statuses := make([]*TxStatus, 0, len(unit.BroadcastTxs)+1)
	for i, payload := range unit.BroadcastTxs {
		statuses = append(statuses, &TxStatus{
			Name:    fmt.Sprintf("broadcast-%d", i+1),
			Payload: payload,
		})
	}
	statuses = append(statuses, &TxStatus{
		Name:    "rollup-proof",
		Payload: unit.RollupProofTx,
	})
	return statuses
}

func (p *Publisher) tryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.publishing {
		return false
	}
	p.publishing = true
	return true
}

func (p *Publisher) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishing = false
}

// noopMetrics satisfies MetricsRecorder when none is supplied.
type noopMetrics struct{}

func (noopMetrics) PublishTimer() func()  { return func() {} }
func (noopMetrics) RecordOutcome(Outcome) {}
func (noopMetrics) RecordGateWait(string) {}
func (noopMetrics) RecordRetry(string)    {}
