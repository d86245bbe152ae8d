// Package store persists accounts, leads, and research insights. A lead's
// normalized company website is its canonical identity: both backends enforce
// a global unique constraint on it, which is the correctness backstop when
// concurrent account runs race on the same company.
package store

import (
	"context"
	"errors"

	"github.com/reka-labs/salesbot/internal/model"
)

// ErrDuplicateLead is returned by CreateLead when the company website is
// already known, either from a prior run or from losing a uniqueness race.
// Callers treat it as a normal terminal state, not a failure.
var ErrDuplicateLead = errors.New("store: duplicate lead")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	AccountID string
	Status    model.LeadStatus
	Limit     int
}

// Store defines the persistence interface for the prospecting pipeline.
type Store interface {
	// Accounts and profiles
	CreateAccount(ctx context.Context, account *model.Account) error
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateICP(ctx context.Context, icp *model.ICP) error
	ListAccountsWithProfile(ctx context.Context) ([]model.Profile, error)

	// Leads
	FindLeadByWebsite(ctx context.Context, website string) (*model.Lead, error)
	CreateLead(ctx context.Context, lead *model.Lead, insight *model.ResearchInsight) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
