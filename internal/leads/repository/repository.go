package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID            uuid.UUID
	CompanyName   string
	Sector        *string
	Status        string
	Stage         string
	Priority      *string
	LastContacted *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateLeadParams struct {
	CompanyName string
	Sector      *string
	Priority    *string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (company_name, sector, status, stage, priority)
		VALUES ($1, $2, 'open', 'prospect', $3)
		RETURNING id, company_name, sector, status, stage, priority, last_contacted, created_at, updated_at
	`,
		params.CompanyName, params.Sector, params.Priority,
	).Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.Status, &lead.Stage,
		&lead.Priority, &lead.LastContacted, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_name, sector, status, stage, priority, last_contacted, created_at, updated_at
		FROM leads WHERE id = $1
	`, id).Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.Status, &lead.Stage,
		&lead.Priority, &lead.LastContacted, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_name, sector, status, stage, priority, last_contacted, created_at, updated_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.CompanyName, &lead.Sector, &lead.Status, &lead.Stage,
			&lead.Priority, &lead.LastContacted, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// UpdateLeadParams carries a partial update: nil fields are left untouched.
type UpdateLeadParams struct {
	CompanyName *string
	Sector      *string
	Status      *string
	Stage       *string
	Priority    *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	args = append(args, id)

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.CompanyName != nil {
		appendSet("company_name", *params.CompanyName)
	}
	if params.Sector != nil {
		appendSet("sector", *params.Sector)
	}
	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.Stage != nil {
		appendSet("stage", *params.Stage)
	}
	if params.Priority != nil {
		appendSet("priority", *params.Priority)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	var lead Lead
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING id, company_name, sector, status, stage, priority, last_contacted, created_at, updated_at
	`, args...).Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.Status, &lead.Stage,
		&lead.Priority, &lead.LastContacted, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// TouchContact records a contact moment, resetting the re-engagement clock.
func (r *Repository) TouchContact(ctx context.Context, id uuid.UUID, at time.Time) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET last_contacted = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, company_name, sector, status, stage, priority, last_contacted, created_at, updated_at
	`, id, at).Scan(
		&lead.ID, &lead.CompanyName, &lead.Sector, &lead.Status, &lead.Stage,
		&lead.Priority, &lead.LastContacted, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}
