// Package onboard sets up a new account: contact details, the product being
// sold, and an ideal-customer profile. When the caller does not supply
// targeting, the completion client suggests it from the product description.
package onboard

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/internal/store"
	"github.com/reka-labs/salesbot/pkg/completion"
)

const analysisPrompt = `As a sales strategy expert, analyze this product and help identify ideal customer characteristics.

Product: %s
Description: %s

Please analyze this product and provide:
1. List the top 5 specific pain points this product solves (be very specific)
2. List 5 key search terms that would help find companies needing this solution
3. List 3-5 alternative ways to describe the target industry

Format your response exactly like this:
Pain Point: [specific pain point]
Search Term: [search term]
Industry: [industry description]`

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Suggestion is the targeting derived from a product description.
type Suggestion struct {
	PainPoints  []string
	SearchTerms []string
	Industries  []string
}

// Analyzer suggests ICP targeting from a product description.
type Analyzer struct {
	ai  completion.Client
	cfg config.CompletionConfig
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(ai completion.Client, cfg config.CompletionConfig) *Analyzer {
	return &Analyzer{ai: ai, cfg: cfg}
}

// AnalyzeProduct asks the completion client for pain points, search terms,
// and industry descriptions. It never fails: on error or unusable output it
// returns an empty Suggestion and the caller falls back to its own targeting.
func (a *Analyzer) AnalyzeProduct(ctx context.Context, productName, productDesc string) Suggestion {
	prompt := fmt.Sprintf(analysisPrompt, productName, productDesc)
	resp, err := a.ai.Complete(ctx, completion.Request{
		Model:       a.cfg.Model,
		Messages:    []completion.Message{{Role: "user", Content: prompt}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: &a.cfg.Temperature,
		TopP:        &a.cfg.TopP,
	})
	if err != nil {
		zap.L().Warn("onboard: product analysis failed", zap.Error(err))
		return Suggestion{}
	}
	return parseSuggestionLines(resp.Text())
}

// parseSuggestionLines scans for Pain Point:/Search Term:/Industry: prefixed
// lines, preserving order within each list.
func parseSuggestionLines(text string) Suggestion {
	var s Suggestion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Pain Point:"):
			if v := strings.TrimSpace(strings.TrimPrefix(line, "Pain Point:")); v != "" {
				s.PainPoints = append(s.PainPoints, v)
			}
		case strings.HasPrefix(line, "Search Term:"):
			if v := strings.TrimSpace(strings.TrimPrefix(line, "Search Term:")); v != "" {
				s.SearchTerms = append(s.SearchTerms, v)
			}
		case strings.HasPrefix(line, "Industry:"):
			if v := strings.TrimSpace(strings.TrimPrefix(line, "Industry:")); v != "" {
				s.Industries = append(s.Industries, v)
			}
		}
	}
	return s
}

// Input carries everything needed to onboard one account. TargetIndustries
// and PainPoints are optional; missing targeting is filled from the product
// analysis.
type Input struct {
	Name               string
	Email              string
	CompanyName        string
	Website            string
	Industry           string
	ProductName        string
	ProductDescription string
	TargetIndustries   []string
	PainPoints         []string
	Geography          string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return eris.New("onboard: name is required")
	}
	if !emailRe.MatchString(in.Email) {
		return eris.Errorf("onboard: invalid email %q", in.Email)
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return eris.New("onboard: company name is required")
	}
	if strings.TrimSpace(in.ProductName) == "" || strings.TrimSpace(in.ProductDescription) == "" {
		return eris.New("onboard: product name and description are required")
	}
	return nil
}

// Run validates the input, fills missing targeting from the product
// analysis, and persists the account, product, and ICP rows.
func Run(ctx context.Context, st store.Store, analyzer *Analyzer, in Input) (*model.Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	industries := in.TargetIndustries
	painPoints := in.PainPoints
	if len(industries) == 0 || len(painPoints) == 0 {
		suggestion := analyzer.AnalyzeProduct(ctx, in.ProductName, in.ProductDescription)
		if len(industries) == 0 {
			industries = suggestion.Industries
		}
		if len(painPoints) == 0 {
			painPoints = suggestion.PainPoints
		}
	}

	account := &model.Account{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Website:     strings.TrimSpace(in.Website),
		Industry:    strings.TrimSpace(in.Industry),
	}
	if err := st.CreateAccount(ctx, account); err != nil {
		return nil, eris.Wrap(err, "onboard: create account")
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		Name:        strings.TrimSpace(in.ProductName),
		Description: strings.TrimSpace(in.ProductDescription),
	}
	if err := st.CreateProduct(ctx, product); err != nil {
		return nil, eris.Wrap(err, "onboard: create product")
	}

	icp := &model.ICP{
		ID:               uuid.NewString(),
		AccountID:        account.ID,
		TargetIndustries: industries,
		TargetPainPoints: painPoints,
		Geography:        strings.TrimSpace(in.Geography),
	}
	if err := st.CreateICP(ctx, icp); err != nil {
		return nil, eris.Wrap(err, "onboard: create icp")
	}

	zap.L().Info("onboard: account created",
		zap.String("account_id", account.ID),
		zap.String("email", account.Email),
		zap.Int("industries", len(industries)),
		zap.Int("pain_points", len(painPoints)),
	)
	return account, nil
}
