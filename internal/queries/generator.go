// Package queries turns an account's product and ideal-customer profile into
// an ordered set of web search queries.
package queries

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/completion"
)

// maxQueries caps how many model-proposed queries one run uses.
const maxQueries = 5

const generationPrompt = `As a sales prospecting expert, help me generate effective search queries to find potential companies that might need our solution.

Product: %s - %s
Target Industries: %s

Generate 5 search queries that would help find relevant companies. Focus on finding companies that might need our solution.
Make the queries simple and direct, good for web search.

Format your response exactly like this:
Query: [search query]`

// Generator produces search queries for a profile, backed by the completion
// client with a deterministic fallback.
type Generator struct {
	ai  completion.Client
	cfg config.CompletionConfig
}

// New creates a Generator.
func New(ai completion.Client, cfg config.CompletionConfig) *Generator {
	return &Generator{ai: ai, cfg: cfg}
}

// Generate returns 1-5 ordered search queries for the profile. It never
// returns an empty slice and never fails: when the completion call errors or
// yields no usable lines, the deterministic fallback takes over.
func (g *Generator) Generate(ctx context.Context, profile model.Profile) []string {
	prompt := fmt.Sprintf(generationPrompt,
		profile.ProductName,
		profile.ProductDescription,
		strings.Join(profile.TargetIndustries, ", "),
	)

	resp, err := g.ai.Complete(ctx, completion.Request{
		Model:       g.cfg.Model,
		Messages:    []completion.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: &g.cfg.Temperature,
		TopP:        &g.cfg.TopP,
	})
	if err != nil {
		zap.L().Warn("queries: completion failed, using fallback", zap.Error(err))
		return Fallback(profile)
	}

	parsed := ParseQueryLines(resp.Text())
	if len(parsed) == 0 {
		zap.L().Warn("queries: no usable query lines in completion, using fallback")
		return Fallback(profile)
	}
	return parsed
}

// ParseQueryLines scans completion text for lines of the form
// "Query: <text>", preserving order and dropping empty payloads. It is a
// total function: malformed input yields an empty slice, never an error.
func ParseQueryLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Query:") {
			continue
		}
		q := strings.TrimSpace(strings.TrimPrefix(line, "Query:"))
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == maxQueries {
			break
		}
	}
	return out
}

// Fallback builds queries without any external call: one per target industry,
// or a product-derived query when the profile lists no industries. Always
// returns at least one query.
func Fallback(profile model.Profile) []string {
	if len(profile.TargetIndustries) > 0 {
		out := make([]string, 0, len(profile.TargetIndustries))
		for _, industry := range profile.TargetIndustries {
			out = append(out, "top companies "+industry)
		}
		return out
	}
	if name := strings.TrimSpace(profile.ProductName); name != "" {
		return []string{"companies needing " + name}
	}
	return []string{"top companies"}
}
