// Package orchestrator coordinates the editorial retrieval pipeline:
// resolve the problem URL, consult the cache, scrape the problem and
// tutorial pages, extract the editorial, write back to the cache.
//
// The orchestrator owns sequencing and the caching strategy. Every
// other concern lives behind a collaborator interface so the pipeline
// can be exercised without network or model access.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"editorial-gateway/internal/cache"
	"editorial-gateway/internal/editorial"
)

// URLResolver turns a public problem URL into a problem identifier.
type URLResolver interface {
	Resolve(rawURL string) (editorial.ProblemIdentifier, error)
}

// ProblemFetcher retrieves page metadata for a problem. Called on
// every request, cache hit or not; problem data is never cached.
type ProblemFetcher interface {
	ProblemData(ctx context.Context, id editorial.ProblemIdentifier) (*editorial.ProblemData, error)
}

// TutorialFinder locates the tutorial post for a problem.
type TutorialFinder interface {
	FindTutorial(ctx context.Context, id editorial.ProblemIdentifier) (string, error)
}

// TutorialFetcher retrieves and classifies tutorial content.
type TutorialFetcher interface {
	TutorialContent(ctx context.Context, url string) (*editorial.TutorialContent, error)
}

// Extractor produces a structured editorial from tutorial content.
type Extractor interface {
	Extract(ctx context.Context, content *editorial.TutorialContent, id editorial.ProblemIdentifier, problemTitle string) (*editorial.Editorial, error)
}

// Deps are the five collaborators the pipeline runs on. All are
// required.
type Deps struct {
	Resolver  URLResolver
	Problems  ProblemFetcher
	Tutorials TutorialFinder
	Contents  TutorialFetcher
	Extractor Extractor
}

func (d Deps) validate() error {
	switch {
	case d.Resolver == nil:
		return errors.New("orchestrator: Resolver is required")
	case d.Problems == nil:
		return errors.New("orchestrator: Problems is required")
	case d.Tutorials == nil:
		return errors.New("orchestrator: Tutorials is required")
	case d.Contents == nil:
		return errors.New("orchestrator: Contents is required")
	case d.Extractor == nil:
		return errors.New("orchestrator: Extractor is required")
	}
	return nil
}

type options struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

type Option func(*options)

// WithCache enables the advisory cache on top of store. Entries live
// for ttl; ttl <= 0 picks the default of one day.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(o *options) {
		o.store = store
		o.ttl = ttl
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator is safe for concurrent use; it holds no mutable state
// after construction.
type Orchestrator struct {
	deps   Deps
	cache  cacheStrategy
	logger *zap.Logger
}

func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger.Named("orchestrator")
	return &Orchestrator{
		deps:   deps,
		cache:  newCacheStrategy(cfg.store, cfg.ttl, logger),
		logger: logger,
	}, nil
}

// GetEditorial returns the editorial and fresh problem metadata for a
// public problem URL.
//
// Cached editorials short-circuit the scraping and extraction steps,
// but problem data is always fetched live. Every error leaving this
// method is a *editorial.Error; collaborator errors that already carry
// a kind pass through unchanged, anything else is wrapped once as
// internal.
func (o *Orchestrator) GetEditorial(ctx context.Context, rawURL string) (*editorial.Editorial, *editorial.ProblemData, error) {
	ed, data, err := o.getEditorial(ctx, rawURL)
	if err != nil {
		return nil, nil, normalizeError(err)
	}
	return ed, data, nil
}

func (o *Orchestrator) getEditorial(ctx context.Context, rawURL string) (*editorial.Editorial, *editorial.ProblemData, error) {
	o.logger.Debug("starting editorial retrieval", zap.String("url", rawURL))

	id, err := o.deps.Resolver.Resolve(rawURL)
	if err != nil {
		return nil, nil, err
	}
	logger := o.logger.With(zap.String("problem", id.String()))

	if cached, ok := o.cache.lookup(ctx, id); ok {
		logger.Info("serving editorial from cache")
		data, err := o.deps.Problems.ProblemData(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return cached, data, nil
	}

	logger.Debug("fetching problem page")
	data, err := o.deps.Problems.ProblemData(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("locating tutorial")
	tutorialURL, err := o.deps.Tutorials.FindTutorial(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("fetching tutorial content", zap.String("tutorial_url", tutorialURL))
	content, err := o.deps.Contents.TutorialContent(ctx, tutorialURL)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("extracting editorial")
	ed, err := o.deps.Extractor.Extract(ctx, content, id, data.Title)
	if err != nil {
		return nil, nil, err
	}

	// A caller that has already gone away must not publish its result.
	if ctx.Err() == nil {
		o.cache.save(ctx, id, ed, tutorialURL, content.Format)
	}

	logger.Info("editorial retrieval completed",
		zap.Int("sections", len(ed.Sections)),
	)
	return ed, data, nil
}

// ClearCache empties the editorial cache. With caching disabled this
// logs a warning and succeeds; with a live backend, failure to flush
// is an error the caller sees.
func (o *Orchestrator) ClearCache(ctx context.Context) error {
	if err := o.cache.clear(ctx); err != nil {
		return normalizeError(err)
	}
	return nil
}

// CacheEnabled reports whether this orchestrator was built with a
// cache backend.
func (o *Orchestrator) CacheEnabled() bool { return o.cache.enabled() }

// normalizeError guarantees the single-family error contract. Domain
// errors pass through untouched so kinds assigned deep in the pipeline
// survive to the caller; everything else is wrapped exactly once.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := editorial.AsError(err); ok {
		return err
	}
	return editorial.Wrap(editorial.KindInternal, "editorial pipeline failed", err)
}
