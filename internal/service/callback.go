package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"note_ingest/internal/domain"
)

type CallbackConfig struct {
	// Prefix is the storage collection notes are written under.
	Prefix string
	// Timeout bounds each phase of a callback that talks to a collaborator.
	Timeout time.Duration
}

// CallbackDeps lists the collaborators of a CallbackProcessor. Storage and
// Renderer are required; the rest may be nil.
type CallbackDeps struct {
	Storage    StorageClient
	Renderer   Renderer
	Jobs       JobStore
	Deliveries DeliveryStore
	TxManager  TransactionManager
	Publisher  Publisher
	Guard      DeliveryGuard
}

// CallbackProcessor turns extraction webhooks into stored notes, or into stub
// notes when anything goes wrong.
type CallbackProcessor struct {
	storage    StorageClient
	renderer   Renderer
	jobs       JobStore
	deliveries DeliveryStore
	txManager  TransactionManager
	publisher  Publisher
	guard      DeliveryGuard
	resolvers  []URLResolver
	prefix     string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewCallbackProcessor(deps CallbackDeps, logger *slog.Logger, cfg CallbackConfig) *CallbackProcessor {
	resolvers := []URLResolver{MetadataSourceURL, DocumentURL}
	if deps.Jobs != nil {
		resolvers = append(resolvers, LedgerURL(deps.Jobs))
	}

	return &CallbackProcessor{
		storage:    deps.Storage,
		renderer:   deps.Renderer,
		jobs:       deps.Jobs,
		deliveries: deps.Deliveries,
		txManager:  deps.TxManager,
		publisher:  deps.Publisher,
		guard:      deps.Guard,
		resolvers:  resolvers,
		prefix:     cfg.Prefix,
		timeout:    cfg.Timeout,
		logger:     logger.With("component", "callback"),
	}
}

// Process handles one webhook delivery. It never fails: every problem ends
// in a stub note or, when even that cannot be written, a log line.
func (p *CallbackProcessor) Process(ctx context.Context, payload domain.CallbackPayload) domain.CallbackResult {
	result := domain.CallbackResult{
		DeliveryID: uuid.NewString(),
		JobID:      payload.JobID,
		EventType:  payload.Type,
	}
	logger := p.logger.With(
		"delivery_id", result.DeliveryID,
		"job_id", payload.JobID,
		"event", payload.Type,
	)

	if err := catchPanic(func() { p.handle(ctx, payload, &result, logger) }); err != nil {
		p.recoverHandle(ctx, &result, err, logger)
	}

	logger.Info("callback handled",
		"classification", result.Classification,
		"outcome", result.Outcome,
		"path", result.Path,
	)

	if err := catchPanic(func() { p.record(ctx, result, logger) }); err != nil {
		logger.Error("failed to record delivery", "error", err)
	}

	return result
}

// recoverHandle settles a callback whose handling panicked before it reached
// an outcome: the success path is treated as failed and a stub is attempted.
func (p *CallbackProcessor) recoverHandle(ctx context.Context, result *domain.CallbackResult, err error, logger *slog.Logger) {
	logger.Error("callback handling panicked", "error", err)
	if result.Outcome != "" {
		return
	}

	result.Fallback = true
	result.Message = err.Error()
	if result.SourceURL == "" {
		result.SourceURL = domain.UnknownURL
	}
	p.recordStub(ctx, result, logger)
}

// catchPanic runs fn and turns a panic into an error.
func catchPanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	fn()
	return nil
}

func (p *CallbackProcessor) handle(ctx context.Context, payload domain.CallbackPayload, result *domain.CallbackResult, logger *slog.Logger) {
	class, data, err := Classify(payload)
	result.Classification = class

	if class == domain.ClassEmpty {
		logger.Info("callback carried no result data")
		result.Outcome = domain.OutcomeDropped
		return
	}
	if class == domain.ClassNoExtraction {
		logger.Warn("result document has no extracted data")
		result.Outcome = domain.OutcomeDropped
		return
	}

	opCtx, cancel := p.withDeadline(ctx)
	defer cancel()

	result.SourceURL = ResolveSourceURL(opCtx, payload.JobID, payload.FirstDocument(), p.resolvers...)
	logger = logger.With("url", result.SourceURL)

	switch class {
	case domain.ClassFailed:
		logger.Error("extraction job failed", "error", err)
		result.Message = err.Error()
		p.recordStub(ctx, result, logger)
		return
	case domain.ClassInvalid:
		logger.Error("extracted data failed validation", "error", err)
		result.Message = err.Error()
		p.recordStub(ctx, result, logger)
		return
	}

	claimed, dup := p.claim(opCtx, payload.JobID, logger)
	if dup {
		result.Outcome = domain.OutcomeDropped
		result.Message = "duplicate delivery"
		return
	}
	if claimed {
		defer func() {
			if result.Outcome != domain.OutcomeRecorded {
				p.release(ctx, payload.JobID, logger)
			}
		}()
	}

	note := domain.CompleteNote{ExtractedNoteData: data, URL: result.SourceURL}
	ref, err := p.recordNote(opCtx, note)
	if err != nil {
		logger.Error("failed to record note, falling back to stub", "error", err)
		result.Fallback = true
		result.Message = err.Error()
		p.recordStub(ctx, result, logger)
		return
	}

	logger.Info("note recorded", "title", note.Title, "path", ref)
	result.Outcome = domain.OutcomeRecorded
	result.Path = ref
}

func (p *CallbackProcessor) recordNote(ctx context.Context, note domain.CompleteNote) (ref string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render note: panic: %v", r)
		}
	}()

	return p.put(ctx, p.renderer.Render(note))
}

// recordStub writes the failure note under a fresh deadline detached from ctx.
func (p *CallbackProcessor) recordStub(ctx context.Context, result *domain.CallbackResult, logger *slog.Logger) {
	stubCtx, cancel := p.withDeadline(context.WithoutCancel(ctx))
	defer cancel()

	ref, err := func() (ref string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("render stub: panic: %v", r)
			}
		}()
		return p.put(stubCtx, p.renderer.Stub(result.SourceURL, result.Message))
	}()
	if err != nil {
		logger.Error("failed to record stub note, nothing was persisted", "error", err, "reason", result.Message)
		result.Outcome = domain.OutcomeUnrecorded
		return
	}

	logger.Warn("stub note recorded", "path", ref)
	result.Outcome = domain.OutcomeStubRecorded
	result.Path = ref
}

func (p *CallbackProcessor) put(ctx context.Context, art domain.Artifact) (string, error) {
	ref, err := p.storage.PutFile(ctx, path.Join(p.prefix, art.Filename), art.Content)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", domain.ErrPersistence, art.Filename, err)
	}
	return ref, nil
}

// claim takes the delivery guard for jobID. claimed reports that this call
// holds the key; duplicate that another delivery already does.
func (p *CallbackProcessor) claim(ctx context.Context, jobID string, logger *slog.Logger) (claimed, duplicate bool) {
	if p.guard == nil || jobID == "" {
		return false, false
	}

	claimed, err := p.guard.Claim(ctx, jobID)
	if err != nil {
		logger.Warn("delivery guard unavailable, processing anyway", "error", err)
		return false, false
	}
	if !claimed {
		logger.Info("duplicate delivery ignored")
	}
	return claimed, !claimed
}

// release frees the guard so a later delivery of the job can still record
// the note.
func (p *CallbackProcessor) release(ctx context.Context, jobID string, logger *slog.Logger) {
	releaseCtx, cancel := p.withDeadline(context.WithoutCancel(ctx))
	defer cancel()

	if err := p.guard.Release(releaseCtx, jobID); err != nil {
		logger.Warn("failed to release delivery guard", "error", err)
	}
}

// record writes the delivery to the ledger and publishes it. Failures here
// are logged only.
func (p *CallbackProcessor) record(ctx context.Context, result domain.CallbackResult, logger *slog.Logger) {
	ctx, cancel := p.withDeadline(context.WithoutCancel(ctx))
	defer cancel()

	delivery := domain.NewDelivery(result, time.Now().UTC())

	if p.deliveries != nil && p.txManager != nil {
		err := p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := p.deliveries.Insert(txCtx, delivery); err != nil {
				return fmt.Errorf("insert delivery: %w", err)
			}
			if p.jobs == nil || delivery.JobID == "" {
				return nil
			}
			if err := p.jobs.MarkOutcome(txCtx, delivery.JobID, delivery.Outcome, delivery.ReceivedAt); err != nil {
				return fmt.Errorf("mark job outcome: %w", err)
			}
			return nil
		})
		if err != nil {
			logger.Error("failed to record delivery", "error", err)
		}
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, delivery); err != nil {
			logger.Error("failed to publish delivery", "error", err)
		}
	}
}

func (p *CallbackProcessor) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
