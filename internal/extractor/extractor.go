// Package extractor turns a fetched company page into a fully populated
// ExtractedCompany. The completion call is best-effort: a two-layer fallback
// (JSON parse level and semantic level) guarantees every field carries a
// value, so callers never see a partial or failed extraction.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reka-labs/salesbot/internal/config"
	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/pkg/completion"
)

const extractionSystem = "You are a JSON-only API that extracts company information from website content. Only return valid JSON, no other text."

const extractionPrompt = `Extract company information from this website content. The response MUST be a valid JSON object.

Website URL: %s
Content: %s

Rules:
1. If you can't find a specific piece of information, use "None found" as the value
2. Company name should be the actual business name, not a blog title or article name
3. Lead name should be a real person's name if found, otherwise "None found"
4. Never return null or empty values

Return ONLY a JSON object in this exact format:
{
    "company_name": "actual company name or domain-based name",
    "lead_name": "real person name or 'None found'",
    "lead_email": "found email or '%s'",
    "company_website": "%s",
    "company_description": "2-3 sentence description of what the company does"
}`

// extractionTemperature keeps structured extraction near-deterministic.
const extractionTemperature = 0.1

var titleCaser = cases.Title(language.English)

// Extractor produces structured company summaries from page content.
type Extractor struct {
	ai  completion.Client
	cfg config.CompletionConfig
}

// New creates an Extractor.
func New(ai completion.Client, cfg config.CompletionConfig) *Extractor {
	return &Extractor{ai: ai, cfg: cfg}
}

// Extract builds an ExtractedCompany for the page. pageText is the sanitized
// visible text (may be empty), rawHTML the original markup used for contact
// discovery. Extract never fails: any model failure degrades to deterministic
// fallback values.
func (e *Extractor) Extract(ctx context.Context, pageURL, pageText, rawHTML string) model.ExtractedCompany {
	domain := bareDomain(pageURL)
	defaultEmail := DefaultContactEmail(rawHTML, domain)
	fallback := fallbackCompany(pageURL, domain, defaultEmail)

	prompt := fmt.Sprintf(extractionPrompt, pageURL, pageText, defaultEmail, pageURL)
	temp := extractionTemperature
	resp, err := e.ai.Complete(ctx, completion.Request{
		Model:       e.cfg.Model,
		System:      extractionSystem,
		Messages:    []completion.Message{{Role: "user", Content: prompt}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("extractor: completion failed, using fallback",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return fallback
	}

	return normalize(resp.Text(), fallback, domain)
}

// normalize parses the model output defensively and fills any gap from the
// fallback values. Parse failure, missing keys, and sentinel-like company
// names all degrade without error.
func normalize(text string, fallback model.ExtractedCompany, domain string) model.ExtractedCompany {
	var raw map[string]string
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		zap.L().Warn("extractor: unparseable completion output, using fallback", zap.Error(err))
		return fallback
	}

	out := model.ExtractedCompany{
		CompanyName:        pick(raw, "company_name", fallback.CompanyName),
		LeadName:           pick(raw, "lead_name", fallback.LeadName),
		LeadEmail:          pick(raw, "lead_email", fallback.LeadEmail),
		CompanyWebsite:     pick(raw, "company_website", fallback.CompanyWebsite),
		CompanyDescription: pick(raw, "company_description", fallback.CompanyDescription),
	}

	// Semantic-level fallback: a sentinel-like company name is as useless as
	// a missing one.
	switch strings.ToLower(strings.TrimSpace(out.CompanyName)) {
	case "none", "none found", "unknown":
		out.CompanyName = titleCaser.String(domain)
	}

	return out
}

func pick(raw map[string]string, key, fallback string) string {
	if v, ok := raw[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func fallbackCompany(pageURL, domain, defaultEmail string) model.ExtractedCompany {
	return model.ExtractedCompany{
		CompanyName:        titleCaser.String(domain),
		LeadName:           model.SentinelNoneFound,
		LeadEmail:          defaultEmail,
		CompanyWebsite:     pageURL,
		CompanyDescription: model.SentinelNoneFound,
	}
}

// cleanJSON extracts a JSON object from text that may be wrapped in markdown
// code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// bareDomain returns the first host label with any www. prefix removed, e.g.
// "https://www.acme-logistics.com/x" -> "acme-logistics".
func bareDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "company"
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
