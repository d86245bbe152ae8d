// Package model defines the core types shared across the prospecting pipeline.
package model

import (
	"strings"
	"time"
)

// LeadStatus tracks a lead through the outreach lifecycle.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusRejected  LeadStatus = "rejected"
)

// ValidLeadStatus reports whether s is a known lifecycle status.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusQualified, LeadStatusContacted, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

// Lead is a persisted, deduplicated company record produced by the pipeline.
// CompanyWebsite is the canonical identity: the store enforces global
// uniqueness on it so repeated runs never create the same company twice.
type Lead struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	CompanyName    string     `json:"company_name"`
	LeadName       string     `json:"lead_name"`
	CompanyWebsite string     `json:"company_website"`
	LeadEmail      string     `json:"lead_email"`
	Status         LeadStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ResearchInsight holds the company analysis written alongside a lead at
// creation time. One insight per lead, append-only afterward.
type ResearchInsight struct {
	ID             string    `json:"id"`
	LeadID         string    `json:"lead_id"`
	Description    []string  `json:"company_description"`
	Benefits       []string  `json:"potential_benefits"`
	OutreachPoints []string  `json:"outreach_points"`
	RelevanceScore int       `json:"relevance_score"`
	SourceURL      string    `json:"source_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeWebsite canonicalizes a website URL for dedup comparisons:
// scheme stripped, trailing slash stripped, host lowercased.
func NormalizeWebsite(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimRight(s, "/")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		return strings.ToLower(s[:i]) + s[i:]
	}
	return strings.ToLower(s)
}
