package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/completion"
)

// defaultRelevanceScore is used for every insight. Ranking sophistication is
// out of scope; leads are moderately relevant until a human says otherwise.
const defaultRelevanceScore = 70

const researchPrompt = `You are a helpful sales assistant. Analyze this company's website content and provide insights about how our product might help them.

About our product:
%s - %s

Website content to analyze:
%s

Please provide a friendly analysis that could help write a personalized email. Include:
1. What they do (2-3 sentences)
2. How our product might help them (2-3 specific examples)
3. Any interesting points we could mention in our outreach

Keep it conversational and friendly. No scoring or strict evaluation needed.`

// Researcher generates the company analysis persisted alongside each lead.
type Researcher struct {
	ai  completion.Client
	cfg config.CompletionConfig
}

// NewResearcher creates a Researcher.
func NewResearcher(ai completion.Client, cfg config.CompletionConfig) *Researcher {
	return &Researcher{ai: ai, cfg: cfg}
}

// Research builds a ResearchInsight for the extracted company. It never
// fails: on completion error or unusable output it returns an insight whose
// sections carry only the extracted company description.
func (r *Researcher) Research(ctx context.Context, extracted model.ExtractedCompany, pageText string, profile model.Profile) *model.ResearchInsight {
	insight := &model.ResearchInsight{
		ID:             uuid.NewString(),
		RelevanceScore: defaultRelevanceScore,
		SourceURL:      extracted.CompanyWebsite,
		CreatedAt:      time.Now().UTC(),
	}

	prompt := fmt.Sprintf(researchPrompt, profile.ProductName, profile.ProductDescription, pageText)
	resp, err := r.ai.Complete(ctx, completion.Request{
		Model:       r.cfg.Model,
		Messages:    []completion.Message{{Role: "user", Content: prompt}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: &r.cfg.Temperature,
		TopP:        &r.cfg.TopP,
	})
	if err != nil {
		zap.L().Warn("pipeline: research completion failed, using extraction summary",
			zap.String("website", extracted.CompanyWebsite),
			zap.Error(err),
		)
		insight.Description = []string{extracted.CompanyDescription}
		return insight
	}

	desc, benefits, points := parseResearchSections(resp.Text())
	if len(desc) == 0 {
		desc = []string{extracted.CompanyDescription}
	}
	insight.Description = desc
	insight.Benefits = benefits
	insight.OutreachPoints = points
	return insight
}

// parseResearchSections splits a free-form analysis into the three email
// sections by scanning for the section headers, then collecting the bullet
// lines that follow each one.
func parseResearchSections(text string) (desc, benefits, points []string) {
	var current *[]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "they do"):
			current = &desc
		case strings.Contains(lower, "our product"), strings.Contains(lower, "help them"):
			current = &benefits
		case strings.Contains(lower, "interesting"):
			current = &points
		case current != nil && isBulletLine(line):
			*current = append(*current, strings.TrimLeft(line, "-•*123. "))
		}
	}
	return desc, benefits, points
}

func isBulletLine(line string) bool {
	for _, prefix := range []string{"-", "•", "*", "1.", "2.", "3."} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
