package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reka-labs/salesbot/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_FindLeadByWebsite(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE website_key`).
		WithArgs("acme.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "account_id", "company_name", "lead_name", "company_website",
			"lead_email", "status", "created_at", "updated_at",
		}).AddRow(
			"lead-1", "acct-1", "Acme", model.SentinelNoneFound, "https://acme.com",
			"contact@acme.com", model.LeadStatusNew, now, now,
		))

	// The backend receives the normalized key, not the raw URL.
	lead, err := s.FindLeadByWebsite(context.Background(), "https://ACME.com/")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindLeadByWebsite_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE website_key`).
		WithArgs("nowhere.com").
		WillReturnError(pgx.ErrNoRows)

	lead, err := s.FindLeadByWebsite(context.Background(), "https://nowhere.com")
	require.NoError(t, err)
	assert.Nil(t, lead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	lead := &model.Lead{
		ID:             "lead-1",
		AccountID:      "acct-1",
		CompanyName:    "Acme",
		LeadName:       model.SentinelNoneFound,
		CompanyWebsite: "https://acme.com",
		LeadEmail:      "contact@acme.com",
		Status:         model.LeadStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	insight := &model.ResearchInsight{
		ID:             "ins-1",
		LeadID:         "lead-1",
		Description:    []string{"Acme builds widgets."},
		Benefits:       []string{"Track shipments."},
		OutreachPoints: []string{"Recently expanded."},
		RelevanceScore: 70,
		SourceURL:      "https://acme.com",
		CreatedAt:      now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs("lead-1", "acct-1", "Acme", model.SentinelNoneFound, "https://acme.com",
			"acme.com", "contact@acme.com", model.LeadStatusNew, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO research_insights`).
		WithArgs("ins-1", "lead-1", pgxmock.AnyArg(), "https://acme.com", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, s.CreateLead(context.Background(), lead, insight))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateLead_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	lead := &model.Lead{
		ID:             "lead-2",
		AccountID:      "acct-1",
		CompanyName:    "Acme",
		LeadName:       model.SentinelNoneFound,
		CompanyWebsite: "http://acme.com/",
		LeadEmail:      "contact@acme.com",
		Status:         model.LeadStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	insight := &model.ResearchInsight{ID: "ins-2", LeadID: "lead-2", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "leads_website_key_key"})
	mock.ExpectRollback()

	err := s.CreateLead(context.Background(), lead, insight)
	assert.ErrorIs(t, err, ErrDuplicateLead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE account_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("acct-1", model.LeadStatusNew, 5).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "account_id", "company_name", "lead_name", "company_website",
			"lead_email", "status", "created_at", "updated_at",
		}).AddRow(
			"lead-1", "acct-1", "Acme", model.SentinelNoneFound, "https://acme.com",
			"contact@acme.com", model.LeadStatusNew, now, now,
		))

	leads, err := s.ListLeads(context.Background(), LeadFilter{
		AccountID: "acct-1",
		Status:    model.LeadStatusNew,
		Limit:     5,
	})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme", leads[0].CompanyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateLeadStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status`).
		WithArgs(model.LeadStatusQualified, "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateLeadStatus(context.Background(), "lead-1", model.LeadStatusQualified))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateLeadStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET status`).
		WithArgs(model.LeadStatusRejected, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateLeadStatus(context.Background(), "missing", model.LeadStatusRejected)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateLeadStatus_InvalidStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.UpdateLeadStatus(context.Background(), "lead-1", model.LeadStatus("bogus"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
