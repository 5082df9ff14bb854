package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/store-dashboard/internal/models"
)

// Memberships reads the optional memberships table.
type Memberships struct {
	db *sql.DB
}

func NewMemberships(db *sql.DB) *Memberships {
	return &Memberships{db: db}
}

func (m *Memberships) CountActiveMemberships(ctx context.Context) (int64, error) {
	var count int64
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE status = $1`,
		models.MembershipStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active memberships: %w", err)
	}
	return count, nil
}

func (m *Memberships) ListActiveMemberships(ctx context.Context, limit int) ([]models.Membership, error) {
	query := `
		SELECT m.id, COALESCE(m.user_id, 0), COALESCE(u.display_name, ''),
		       m.plan_name, m.status, m.expires_at, m.created_at
		FROM memberships m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.status = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`

	rows, err := m.db.QueryContext(ctx, query, models.MembershipStatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("list active memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var membership models.Membership
		var expiresAt sql.NullTime

		err := rows.Scan(
			&membership.ID,
			&membership.UserID,
			&membership.Name,
			&membership.PlanName,
			&membership.Status,
			&expiresAt,
			&membership.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			membership.ExpiresAt = &t
		}
		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return memberships, nil
}
