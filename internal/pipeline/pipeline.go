// Package pipeline runs the prospecting job: for each account profile it
// generates queries, walks discovered candidates through classification,
// fetching, extraction, and research, and persists qualified leads. Failures
// stay local to the candidate or account that caused them; a run never fails
// as a whole short of context cancellation.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reka-labs/salesbot/internal/classifier"
	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/fetcher"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/internal/notify"
	"github.com/reka-labs/salesbot/internal/store"
)

// QuerySource produces search queries for a profile.
type QuerySource interface {
	Generate(ctx context.Context, profile model.Profile) []string
}

// CandidateSource streams deduplicated search candidates and paces all
// external requests made during the walk.
type CandidateSource interface {
	Discover(ctx context.Context, searchQueries []string, visit func(model.Candidate) bool) error
	Pace(ctx context.Context) error
}

// PageFetcher retrieves and sanitizes a page.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*fetcher.Page, error)
}

// CompanyExtractor produces a structured company summary from page content.
type CompanyExtractor interface {
	Extract(ctx context.Context, pageURL, pageText, rawHTML string) model.ExtractedCompany
}

// CompanyResearcher writes the insight persisted alongside each lead.
type CompanyResearcher interface {
	Research(ctx context.Context, extracted model.ExtractedCompany, pageText string, profile model.Profile) *model.ResearchInsight
}

// Result summarizes one pipeline run.
type Result struct {
	ProfilesRun     int       `json:"profiles_run"`
	ProfilesSkipped int       `json:"profiles_skipped"`
	LeadsCreated    int       `json:"leads_created"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Pipeline orchestrates one prospecting run across all accounts.
type Pipeline struct {
	store      store.Store
	queries    QuerySource
	candidates CandidateSource
	fetcher    PageFetcher
	extractor  CompanyExtractor
	researcher CompanyResearcher
	notifier   notify.Notifier
	cfg        config.ProspectConfig
}

// New creates a Pipeline.
func New(
	st store.Store,
	queries QuerySource,
	candidates CandidateSource,
	pf PageFetcher,
	ex CompanyExtractor,
	res CompanyResearcher,
	notifier notify.Notifier,
	cfg config.ProspectConfig,
) *Pipeline {
	if cfg.MaxLeadsPerRun <= 0 {
		cfg.MaxLeadsPerRun = 10
	}
	if cfg.MaxConcurrentAccounts <= 0 {
		cfg.MaxConcurrentAccounts = 1
	}
	return &Pipeline{
		store:      st,
		queries:    queries,
		candidates: candidates,
		fetcher:    pf,
		extractor:  ex,
		researcher: res,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Run executes one prospecting pass over every account. Accounts run
// concurrently up to the configured bound; work within one account is
// serialized. Account failures are logged and absorbed; only listing the
// accounts or context cancellation fails the run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{StartedAt: time.Now().UTC()}

	profiles, err := p.store.ListAccountsWithProfile(ctx)
	if err != nil {
		return result, err
	}
	zap.L().Info("pipeline: run started", zap.Int("accounts", len(profiles)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrentAccounts)

	for _, profile := range profiles {
		g.Go(func() error {
			if !profile.Complete() {
				zap.L().Warn("pipeline: incomplete profile, skipping account",
					zap.String("account_id", profile.Account.ID),
					zap.String("email", profile.Account.Email),
				)
				mu.Lock()
				result.ProfilesSkipped++
				mu.Unlock()
				return nil
			}

			created := p.runAccount(gctx, profile)

			mu.Lock()
			result.ProfilesRun++
			result.LeadsCreated += created
			mu.Unlock()
			return gctx.Err()
		})
	}

	err = g.Wait()
	result.FinishedAt = time.Now().UTC()
	zap.L().Info("pipeline: run finished",
		zap.Int("profiles_run", result.ProfilesRun),
		zap.Int("profiles_skipped", result.ProfilesSkipped),
		zap.Int("leads_created", result.LeadsCreated),
	)
	return result, err
}

// runAccount walks candidates for one profile until the per-run lead quota is
// met or the candidate stream ends. Returns how many leads were created.
func (p *Pipeline) runAccount(ctx context.Context, profile model.Profile) int {
	log := zap.L().With(zap.String("account_id", profile.Account.ID))

	searchQueries := p.queries.Generate(ctx, profile)
	log.Info("pipeline: account run started",
		zap.Int("queries", len(searchQueries)),
		zap.Int("quota", p.cfg.MaxLeadsPerRun),
	)

	created := 0
	err := p.candidates.Discover(ctx, searchQueries, func(cand model.Candidate) bool {
		if ctx.Err() != nil {
			return false
		}
		if p.processCandidate(ctx, profile, cand, log) {
			created++
		}
		return created < p.cfg.MaxLeadsPerRun
	})
	if err != nil {
		log.Warn("pipeline: candidate walk aborted", zap.Error(err))
	}

	log.Info("pipeline: account run finished", zap.Int("leads_created", created))
	return created
}

// processCandidate takes one candidate through classification, dedup,
// fetching, extraction, research, persistence, and notification. It reports
// whether a lead was created; every failure is terminal for this candidate
// only.
func (p *Pipeline) processCandidate(ctx context.Context, profile model.Profile, cand model.Candidate, log *zap.Logger) bool {
	if !classifier.IsCompanySite(cand.URL, cand.Title) {
		return false
	}

	// Cheap store lookup before any network spend on the candidate.
	existing, err := p.store.FindLeadByWebsite(ctx, cand.URL)
	if err != nil {
		log.Warn("pipeline: dedup lookup failed", zap.String("url", cand.URL), zap.Error(err))
		return false
	}
	if existing != nil {
		log.Debug("pipeline: known company, skipping", zap.String("url", cand.URL))
		return false
	}

	// Page fetches share the discovery pacing budget.
	if err := p.candidates.Pace(ctx); err != nil {
		return false
	}
	page, err := p.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		log.Warn("pipeline: fetch failed", zap.String("url", cand.URL), zap.Error(err))
		return false
	}

	extracted := p.extractor.Extract(ctx, page.URL, page.Text, page.RawHTML)
	insight := p.researcher.Research(ctx, extracted, page.Text, profile)

	now := time.Now().UTC()
	lead := &model.Lead{
		ID:             uuid.NewString(),
		AccountID:      profile.Account.ID,
		CompanyName:    extracted.CompanyName,
		LeadName:       extracted.LeadName,
		CompanyWebsite: extracted.CompanyWebsite,
		LeadEmail:      extracted.LeadEmail,
		Status:         model.LeadStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	insight.LeadID = lead.ID

	if err := p.store.CreateLead(ctx, lead, insight); err != nil {
		if errors.Is(err, store.ErrDuplicateLead) {
			// Lost a race with a concurrent account run; the company is
			// recorded either way.
			log.Debug("pipeline: duplicate lead, skipping", zap.String("website", lead.CompanyWebsite))
			return false
		}
		log.Warn("pipeline: persist failed", zap.String("website", lead.CompanyWebsite), zap.Error(err))
		return false
	}

	log.Info("pipeline: lead created",
		zap.String("company", lead.CompanyName),
		zap.String("website", lead.CompanyWebsite),
	)

	// Notification is at-least-once and best-effort: the lead is already
	// durable, so a failed send is logged and never unwinds the candidate.
	if err := p.notifier.Notify(ctx, profile.Account, *lead, profile, insight); err != nil {
		log.Warn("pipeline: notification failed",
			zap.String("company", lead.CompanyName),
			zap.Error(err),
		)
	}

	return true
}
