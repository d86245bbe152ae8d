package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/reka-labs/salesbot/internal/fetcher"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/completion"
)

type mockCompletionClient struct {
	mock.Mock
}

func (m *mockCompletionClient) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.Response), args.Error(1)
}

func textResponse(text string) *completion.Response {
	return &completion.Response{
		Content: []completion.ContentBlock{{Type: "text", Text: text}},
	}
}

// stubQueries returns fixed queries for every profile.
type stubQueries struct {
	queries []string
}

func (s *stubQueries) Generate(context.Context, model.Profile) []string {
	return s.queries
}

// stubCandidates replays a fixed candidate list without any pacing delay.
type stubCandidates struct {
	candidates []model.Candidate
	paceCalls  int
}

func (s *stubCandidates) Discover(ctx context.Context, _ []string, visit func(model.Candidate) bool) error {
	for _, c := range s.candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !visit(c) {
			return nil
		}
	}
	return nil
}

func (s *stubCandidates) Pace(ctx context.Context) error {
	s.paceCalls++
	return ctx.Err()
}

// stubFetcher serves canned pages keyed by requested URL.
type stubFetcher struct {
	pages map[string]*fetcher.Page
	fail  map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, targetURL string) (*fetcher.Page, error) {
	if err, ok := s.fail[targetURL]; ok {
		return nil, err
	}
	if p, ok := s.pages[targetURL]; ok {
		return p, nil
	}
	return &fetcher.Page{URL: targetURL, Text: "some company content", RawHTML: "<html></html>"}, nil
}

// stubExtractor derives a deterministic company from the page URL.
type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, pageURL, _, _ string) model.ExtractedCompany {
	return model.ExtractedCompany{
		CompanyName:        "Company at " + pageURL,
		LeadName:           model.SentinelNoneFound,
		LeadEmail:          "contact@example-lead.com",
		CompanyWebsite:     pageURL,
		CompanyDescription: "They make things.",
	}
}

// stubResearcher returns a minimal insight without external calls.
type stubResearcher struct{}

func (stubResearcher) Research(_ context.Context, extracted model.ExtractedCompany, _ string, _ model.Profile) *model.ResearchInsight {
	return &model.ResearchInsight{
		ID:             "ins-" + extracted.CompanyWebsite,
		Description:    []string{extracted.CompanyDescription},
		RelevanceScore: 70,
		SourceURL:      extracted.CompanyWebsite,
	}
}

// recordingNotifier captures notified leads; optionally fails every call.
type recordingNotifier struct {
	mu    sync.Mutex
	leads []model.Lead
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, _ model.Account, lead model.Lead, _ model.Profile, _ *model.ResearchInsight) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return n.err
}

func (n *recordingNotifier) notified() []model.Lead {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Lead(nil), n.leads...)
}
