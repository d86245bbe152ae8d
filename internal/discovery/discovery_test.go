package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/websearch"
)

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string, limit int) ([]websearch.Result, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]websearch.Result), args.Error(1)
}

func newTestDiscovery(search websearch.Client) *Discovery {
	return New(search, 2, 10, WithLimiter(rate.NewLimiter(rate.Inf, 1)))
}

func collect(t *testing.T, d *Discovery, queries []string) []model.Candidate {
	t.Helper()
	var out []model.Candidate
	err := d.Discover(context.Background(), queries, func(c model.Candidate) bool {
		out = append(out, c)
		return true
	})
	require.NoError(t, err)
	return out
}

func TestDiscover_OrderedAndDeduplicated(t *testing.T) {
	search := &mockSearchClient{}
	search.On("Search", mock.Anything, "q1", 10).Return([]websearch.Result{
		{URL: "https://acme.com", Title: "Acme"},
		{URL: "http://acme.com/", Title: "Acme again"}, // same site, different scheme and slash
		{URL: "https://globex.com", Title: "Globex"},
	}, nil).Once()
	search.On("Search", mock.Anything, "q2", 10).Return([]websearch.Result{
		{URL: "https://ACME.com", Title: "Acme uppercase"},
		{URL: "https://initech.com", Title: "Initech"},
	}, nil).Once()

	got := collect(t, newTestDiscovery(search), []string{"q1", "q2"})

	require.Len(t, got, 3)
	assert.Equal(t, "https://acme.com", got[0].URL)
	assert.Equal(t, "https://globex.com", got[1].URL)
	assert.Equal(t, "https://initech.com", got[2].URL)
	search.AssertExpectations(t)
}

func TestDiscover_FailingQuerySkipped(t *testing.T) {
	search := &mockSearchClient{}
	search.On("Search", mock.Anything, "bad", 10).Return(nil, assert.AnError).Once()
	search.On("Search", mock.Anything, "good", 10).Return([]websearch.Result{
		{URL: "https://acme.com", Title: "Acme"},
	}, nil).Once()

	got := collect(t, newTestDiscovery(search), []string{"bad", "good"})

	require.Len(t, got, 1)
	assert.Equal(t, "https://acme.com", got[0].URL)
	search.AssertExpectations(t)
}

func TestDiscover_VisitStopsEarly(t *testing.T) {
	search := &mockSearchClient{}
	search.On("Search", mock.Anything, "q1", 10).Return([]websearch.Result{
		{URL: "https://a.com"}, {URL: "https://b.com"}, {URL: "https://c.com"},
	}, nil).Once()
	// q2 must never run once the visitor stops the walk.

	d := newTestDiscovery(search)
	var visited int
	err := d.Discover(context.Background(), []string{"q1", "q2"}, func(model.Candidate) bool {
		visited++
		return visited < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, visited)
	search.AssertExpectations(t)
}

func TestDiscover_ContextCancellation(t *testing.T) {
	search := &mockSearchClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDiscovery(search)
	err := d.Discover(ctx, []string{"q1"}, func(model.Candidate) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
	search.AssertNotCalled(t, "Search")
}

func TestDiscover_EmptyResultURLIgnored(t *testing.T) {
	search := &mockSearchClient{}
	search.On("Search", mock.Anything, "q1", 10).Return([]websearch.Result{
		{URL: "", Title: "ad slot"},
		{URL: "https://acme.com", Title: "Acme"},
	}, nil).Once()

	got := collect(t, newTestDiscovery(search), []string{"q1"})
	require.Len(t, got, 1)
}
