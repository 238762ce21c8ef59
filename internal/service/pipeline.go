// Package service runs the clone pipeline: fetch a page through the
// browser service, ask a completion provider for a reproduction, and
// persist the result as a servable clone directory.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"siteclone/internal/clonestore"
	"siteclone/internal/domain"
	"siteclone/internal/fetcher"
)

// PageFetcher captures a rendered page for a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*domain.FetchedPage, error)
}

// SiteGenerator produces a clone document from a fetched page.
type SiteGenerator interface {
	Generate(ctx context.Context, page *domain.FetchedPage) (*domain.GeneratedSite, error)
}

// CloneWriter persists a generated site and returns its reference.
type CloneWriter interface {
	Create(ctx context.Context, site *domain.GeneratedSite) (clonestore.Ref, error)
}

// Pipeline runs clone jobs end to end. Jobs are synchronous: Run
// returns once the clone is persisted or the job has failed.
type Pipeline struct {
	fetcher   PageFetcher
	generator SiteGenerator
	clones    CloneWriter
	jobs      domain.CloneJobRepository
	logger    zerolog.Logger
}

type PipelineOptions struct {
	Fetcher   PageFetcher
	Generator SiteGenerator
	Clones    CloneWriter
	Jobs      domain.CloneJobRepository
	Logger    zerolog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	return &Pipeline{
		fetcher:   opts.Fetcher,
		generator: opts.Generator,
		clones:    opts.Clones,
		jobs:      opts.Jobs,
		logger:    opts.Logger,
	}
}

// Run clones the page at rawURL. The returned job always reflects the
// final state, including on error. Stage transitions are mirrored to
// the job ledger best-effort; ledger failures are logged and never
// abort the pipeline.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*domain.CloneJob, error) {
	job := &domain.CloneJob{
		ID:        uuid.NewString(),
		SourceURL: rawURL,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	p.record(ctx, job, true)
	log := p.logger.With().Str("job_id", job.ID).Str("source_url", rawURL).Logger()

	if _, err := fetcher.ValidateURL(rawURL); err != nil {
		log.Warn().Err(err).Msg("rejected clone request")
		return p.fail(ctx, job, err)
	}
	log.Info().Msg("clone job started")

	p.transition(ctx, job, domain.StatusFetching)
	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Error().Err(err).Msg("fetch stage failed")
		return p.fail(ctx, job, err)
	}
	log.Info().
		Str("final_url", page.FinalURL).
		Int("html_bytes", len(page.HTML)).
		Int("stylesheets", len(page.Styles)).
		Msg("page captured")

	p.transition(ctx, job, domain.StatusGenerating)
	site, err := p.generator.Generate(ctx, page)
	if err != nil {
		log.Error().Err(err).Msg("generation stage failed")
		return p.fail(ctx, job, err)
	}
	log.Info().
		Str("provider", site.Provider).
		Int("html_bytes", len(site.HTML)).
		Msg("clone generated")

	ref, err := p.clones.Create(ctx, site)
	if err != nil {
		log.Error().Err(err).Msg("persist stage failed")
		return p.fail(ctx, job, err)
	}

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, job, err)
	}

	job.Status = domain.StatusComplete
	job.OutputDir = string(ref)
	job.CompletedAt = time.Now().UTC()
	p.record(ctx, job, false)
	log.Info().Str("clone_id", string(ref)).Msg("clone job complete")
	return job, nil
}

func (p *Pipeline) fail(ctx context.Context, job *domain.CloneJob, cause error) (*domain.CloneJob, error) {
	job.Status = domain.StatusFailed
	job.ErrorDetail = cause.Error()
	job.CompletedAt = time.Now().UTC()
	p.record(ctx, job, false)
	return job, cause
}

func (p *Pipeline) transition(ctx context.Context, job *domain.CloneJob, next domain.CloneStatus) {
	if !domain.CanTransition(job.Status, next) {
		p.logger.Warn().
			Str("job_id", job.ID).
			Str("from", string(job.Status)).
			Str("to", string(next)).
			Msg("skipping invalid status transition")
		return
	}
	job.Status = next
	p.record(ctx, job, false)
}

// record mirrors the job's current state into the ledger. The ledger
// is advisory; a failure here must not fail the clone itself.
func (p *Pipeline) record(ctx context.Context, job *domain.CloneJob, create bool) {
	if p.jobs == nil {
		return
	}
	// Ledger writes should survive a caller that cancelled mid-stage.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var err error
	if create {
		err = p.jobs.Create(opCtx, job)
	} else {
		err = p.jobs.UpdateStatus(opCtx, job.ID, job.Status, job.ErrorDetail, job.OutputDir)
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("job ledger write failed")
	}
}
