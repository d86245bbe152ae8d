package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reka-labs/salesbot/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for single-host deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL UNIQUE,
	company_name TEXT NOT NULL,
	website      TEXT,
	industry     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_account_id ON products(account_id);

CREATE TABLE IF NOT EXISTS icp (
	id                 TEXT PRIMARY KEY,
	account_id         TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	target_industries  TEXT NOT NULL,
	target_pain_points TEXT NOT NULL,
	geography          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_icp_account_id ON icp(account_id);

CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	account_id      TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	company_name    TEXT NOT NULL,
	lead_name       TEXT NOT NULL,
	company_website TEXT NOT NULL,
	website_key     TEXT NOT NULL UNIQUE,
	lead_email      TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'new',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_account_id ON leads(account_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);

CREATE TABLE IF NOT EXISTS research_insights (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	insights    TEXT NOT NULL,
	source_url  TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_insights_lead_id ON research_insights(lead_id);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, company_name, website, industry) VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Email, account.CompanyName, account.Website, account.Industry,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: create account")
	}
	return nil
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *model.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, account_id, name, description) VALUES (?, ?, ?, ?)`,
		product.ID, product.AccountID, product.Name, product.Description,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: create product")
	}
	return nil
}

func (s *SQLiteStore) CreateICP(ctx context.Context, icp *model.ICP) error {
	industries, err := json.Marshal(icp.TargetIndustries)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal industries")
	}
	painPoints, err := json.Marshal(icp.TargetPainPoints)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pain points")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icp (id, account_id, target_industries, target_pain_points, geography) VALUES (?, ?, ?, ?, ?)`,
		icp.ID, icp.AccountID, string(industries), string(painPoints), icp.Geography,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: create icp")
	}
	return nil
}

func (s *SQLiteStore) ListAccountsWithProfile(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, company_name, COALESCE(website, ''), industry FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list accounts")
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CompanyName, &a.Website, &a.Industry); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate accounts")
	}

	profiles := make([]model.Profile, 0, len(accounts))
	for _, a := range accounts {
		p := model.Profile{Account: a}

		err := s.db.QueryRowContext(ctx,
			`SELECT name, description FROM products WHERE account_id = ? ORDER BY id LIMIT 1`, a.ID,
		).Scan(&p.ProductName, &p.ProductDescription)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "sqlite: load product")
		}

		var industries, painPoints string
		err = s.db.QueryRowContext(ctx,
			`SELECT target_industries, target_pain_points, geography FROM icp WHERE account_id = ? ORDER BY id LIMIT 1`, a.ID,
		).Scan(&industries, &painPoints, &p.Geography)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "sqlite: load icp")
		}
		if industries != "" {
			if err := json.Unmarshal([]byte(industries), &p.TargetIndustries); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal industries")
			}
		}
		if painPoints != "" {
			if err := json.Unmarshal([]byte(painPoints), &p.TargetPainPoints); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal pain points")
			}
		}

		profiles = append(profiles, p)
	}

	return profiles, nil
}

func (s *SQLiteStore) FindLeadByWebsite(ctx context.Context, website string) (*model.Lead, error) {
	var l model.Lead
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, company_name, lead_name, company_website, lead_email, status, created_at, updated_at
		 FROM leads WHERE website_key = ?`,
		model.NormalizeWebsite(website),
	).Scan(&l.ID, &l.AccountID, &l.CompanyName, &l.LeadName, &l.CompanyWebsite, &l.LeadEmail, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find lead by website")
	}
	return &l, nil
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead, insight *model.ResearchInsight) error {
	insights, err := marshalInsightSections(insight)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal insights")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO leads (id, account_id, company_name, lead_name, company_website, website_key, lead_email, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.AccountID, lead.CompanyName, lead.LeadName, lead.CompanyWebsite,
		model.NormalizeWebsite(lead.CompanyWebsite), lead.LeadEmail, lead.Status, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateLead
		}
		return eris.Wrap(err, "sqlite: insert lead")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO research_insights (id, lead_id, insights, source_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		insight.ID, lead.ID, string(insights), insight.SourceURL, insight.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert insight")
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit")
	}
	return nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, account_id, company_name, lead_name, company_website, lead_email, status, created_at, updated_at FROM leads`
	var (
		clauses []string
		args    []any
	)
	if filter.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer func() { _ = rows.Close() }()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.AccountID, &l.CompanyName, &l.LeadName, &l.CompanyWebsite, &l.LeadEmail, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate leads")
	}
	return leads, nil
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error {
	if !model.ValidLeadStatus(status) {
		return eris.Errorf("sqlite: invalid lead status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, leadID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update lead status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: lead %s not found", leadID)
	}
	return nil
}
