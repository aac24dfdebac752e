package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GuardRepository persists rule-run guards in Postgres. A row in
// automation_rule_runs means the rule committed all of its mutations for the
// lead; the insert is the last step of a successful pass.
type GuardRepository struct {
	pool *pgxpool.Pool
}

func NewGuardRepository(pool *pgxpool.Pool) *GuardRepository {
	return &GuardRepository{pool: pool}
}

func (r *GuardRepository) HasFired(ctx context.Context, leadID uuid.UUID, rule Rule) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM automation_rule_runs
			WHERE lead_id = $1 AND rule = $2
		)`

	var fired bool
	if err := r.pool.QueryRow(ctx, query, leadID, string(rule)).Scan(&fired); err != nil {
		return false, fmt.Errorf("query rule run: %w", err)
	}
	return fired, nil
}

func (r *GuardRepository) MarkFired(ctx context.Context, leadID uuid.UUID, rule Rule) error {
	const query = `
		INSERT INTO automation_rule_runs (lead_id, rule)
		VALUES ($1, $2)
		ON CONFLICT (lead_id, rule) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, leadID, string(rule)); err != nil {
		return fmt.Errorf("insert rule run: %w", err)
	}
	return nil
}

// ListLeadsDueForEscalation returns open leads whose last contact is at or
// before cutoff and whose re-engagement rule has not fired yet. The sweep
// uses it to find leads that went stale without producing an event.
func (r *GuardRepository) ListLeadsDueForEscalation(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	const query = `
		SELECT l.id
		FROM leads l
		WHERE l.status = 'open'
		  AND l.last_contacted IS NOT NULL
		  AND l.last_contacted <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM automation_rule_runs rr
			WHERE rr.lead_id = l.id AND rr.rule = $2
		  )
		ORDER BY l.last_contacted ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, cutoff, string(RuleReengagement), limit)
	if err != nil {
		return nil, fmt.Errorf("query stale leads: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale lead: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale leads: %w", err)
	}
	return ids, nil
}
