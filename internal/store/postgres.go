package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/reka-labs/salesbot/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	target_industries  JSONB NOT NULL,
	target_pain_points JSONB NOT NULL,
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
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_leads_account_id ON leads(account_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);

CREATE TABLE IF NOT EXISTS research_insights (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	insights    JSONB NOT NULL,
	source_url  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_insights_lead_id ON research_insights(lead_id);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, name, email, company_name, website, industry) VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Name, account.Email, account.CompanyName, account.Website, account.Industry,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: create account")
	}
	return nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *model.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, account_id, name, description) VALUES ($1, $2, $3, $4)`,
		product.ID, product.AccountID, product.Name, product.Description,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: create product")
	}
	return nil
}

func (s *PostgresStore) CreateICP(ctx context.Context, icp *model.ICP) error {
	industries, err := json.Marshal(icp.TargetIndustries)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal industries")
	}
	painPoints, err := json.Marshal(icp.TargetPainPoints)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pain points")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO icp (id, account_id, target_industries, target_pain_points, geography) VALUES ($1, $2, $3, $4, $5)`,
		icp.ID, icp.AccountID, industries, painPoints, icp.Geography,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: create icp")
	}
	return nil
}

// ListAccountsWithProfile returns one Profile per account. Accounts missing a
// product or ICP come back with those fields empty; the orchestrator decides
// whether to skip them.
func (s *PostgresStore) ListAccountsWithProfile(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, company_name, COALESCE(website, ''), industry FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accounts")
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CompanyName, &a.Website, &a.Industry); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate accounts")
	}

	profiles := make([]model.Profile, 0, len(accounts))
	for _, a := range accounts {
		p := model.Profile{Account: a}

		err := s.pool.QueryRow(ctx,
			`SELECT name, description FROM products WHERE account_id = $1 ORDER BY id LIMIT 1`, a.ID,
		).Scan(&p.ProductName, &p.ProductDescription)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "postgres: load product")
		}

		var industries, painPoints []byte
		err = s.pool.QueryRow(ctx,
			`SELECT target_industries, target_pain_points, geography FROM icp WHERE account_id = $1 ORDER BY id LIMIT 1`, a.ID,
		).Scan(&industries, &painPoints, &p.Geography)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "postgres: load icp")
		}
		if len(industries) > 0 {
			if err := json.Unmarshal(industries, &p.TargetIndustries); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal industries")
			}
		}
		if len(painPoints) > 0 {
			if err := json.Unmarshal(painPoints, &p.TargetPainPoints); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal pain points")
			}
		}

		profiles = append(profiles, p)
	}

	return profiles, nil
}

// FindLeadByWebsite looks a lead up by its normalized company website.
// Returns (nil, nil) when no lead exists.
func (s *PostgresStore) FindLeadByWebsite(ctx context.Context, website string) (*model.Lead, error) {
	var l model.Lead
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, company_name, lead_name, company_website, lead_email, status, created_at, updated_at
		 FROM leads WHERE website_key = $1`,
		model.NormalizeWebsite(website),
	).Scan(&l.ID, &l.AccountID, &l.CompanyName, &l.LeadName, &l.CompanyWebsite, &l.LeadEmail, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find lead by website")
	}
	return &l, nil
}

// CreateLead inserts the lead and its research insight in one transaction:
// either both records are retained or neither. A unique-constraint violation
// on the website key is reported as ErrDuplicateLead.
func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead, insight *model.ResearchInsight) error {
	insights, err := marshalInsightSections(insight)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal insights")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO leads (id, account_id, company_name, lead_name, company_website, website_key, lead_email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lead.ID, lead.AccountID, lead.CompanyName, lead.LeadName, lead.CompanyWebsite,
		model.NormalizeWebsite(lead.CompanyWebsite), lead.LeadEmail, lead.Status, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLead
		}
		return eris.Wrap(err, "postgres: insert lead")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO research_insights (id, lead_id, insights, source_url, created_at) VALUES ($1, $2, $3, $4, $5)`,
		insight.ID, lead.ID, insights, insight.SourceURL, insight.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert insight")
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, account_id, company_name, lead_name, company_website, lead_email, status, created_at, updated_at FROM leads`
	var (
		clauses []string
		args    []any
	)
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		clauses = append(clauses, "account_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.AccountID, &l.CompanyName, &l.LeadName, &l.CompanyWebsite, &l.LeadEmail, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate leads")
	}
	return leads, nil
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error {
	if !model.ValidLeadStatus(status) {
		return eris.Errorf("postgres: invalid lead status %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = now() WHERE id = $2`,
		status, leadID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update lead status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: lead %s not found", leadID)
	}
	return nil
}

// marshalInsightSections serializes the insight sections the way the
// notification email renders them.
func marshalInsightSections(insight *model.ResearchInsight) ([]byte, error) {
	return json.Marshal(map[string]any{
		"company_description": insight.Description,
		"potential_benefits":  insight.Benefits,
		"outreach_points":     insight.OutreachPoints,
		"relevance_score":     insight.RelevanceScore,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
