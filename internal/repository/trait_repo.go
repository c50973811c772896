package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"youtrait/internal/domain"
)

type TraitRepository interface {
	Create(ctx context.Context, trait domain.Trait) error
	GetByID(ctx context.Context, id string) (domain.Trait, error)
	ListByTarget(ctx context.Context, targetUserID string) ([]domain.Trait, error)
	ListByTargetAndStatus(ctx context.Context, targetUserID, status string) ([]domain.Trait, error)
	ListGivenBy(ctx context.Context, createdByUserID, status string) ([]domain.Trait, error)
	CountGivenBy(ctx context.Context, createdByUserID string) (int, error)
	Transition(ctx context.Context, id, targetUserID, status string, at time.Time) (domain.Trait, error)
	Upvote(ctx context.Context, id string) (domain.Trait, error)
}

type PgTraitRepository struct {
	pool *pgxpool.Pool
}

func NewPgTraitRepository(pool *pgxpool.Pool) *PgTraitRepository {
	return &PgTraitRepository{pool: pool}
}

const traitColumns = `id, word, category, status, upvotes, color, target_user, created_by, approved_at, created_at`

func (r *PgTraitRepository) Create(ctx context.Context, trait domain.Trait) error {
	const query = `
		INSERT INTO traits (id, word, category, status, upvotes, color, target_user, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		trait.ID,
		trait.Word,
		trait.Category,
		trait.Status,
		trait.Upvotes,
		trait.Color,
		trait.TargetUserID,
		trait.CreatedByUserID,
		trait.CreatedAt,
	)
	return err
}

func (r *PgTraitRepository) GetByID(ctx context.Context, id string) (domain.Trait, error) {
	query := `SELECT ` + traitColumns + ` FROM traits WHERE id = $1`
	t, err := scanTrait(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Trait{}, notFound(err)
	}
	return t, nil
}

func (r *PgTraitRepository) ListByTarget(ctx context.Context, targetUserID string) ([]domain.Trait, error) {
	query := `SELECT ` + traitColumns + ` FROM traits WHERE target_user = $1 ORDER BY created_at`
	return r.list(ctx, query, targetUserID)
}

func (r *PgTraitRepository) ListByTargetAndStatus(ctx context.Context, targetUserID, status string) ([]domain.Trait, error) {
	query := `SELECT ` + traitColumns + ` FROM traits WHERE target_user = $1 AND status = $2 ORDER BY created_at`
	return r.list(ctx, query, targetUserID, status)
}

// ListGivenBy devuelve los rasgos que el usuario propuso a otros, en orden de creación.
func (r *PgTraitRepository) ListGivenBy(ctx context.Context, createdByUserID, status string) ([]domain.Trait, error) {
	query := `SELECT ` + traitColumns + ` FROM traits WHERE created_by = $1 AND status = $2 ORDER BY created_at`
	return r.list(ctx, query, createdByUserID, status)
}

func (r *PgTraitRepository) CountGivenBy(ctx context.Context, createdByUserID string) (int, error) {
	const query = `SELECT COUNT(*) FROM traits WHERE created_by = $1`
	var n int
	err := r.pool.QueryRow(ctx, query, createdByUserID).Scan(&n)
	return n, err
}

// Transition mueve un rasgo pendiente del usuario destino a status. Si el
// rasgo no existe, no es del usuario o ya no está pendiente, devuelve ErrNotFound.
func (r *PgTraitRepository) Transition(ctx context.Context, id, targetUserID, status string, at time.Time) (domain.Trait, error) {
	query := `
		UPDATE traits
		SET status = $3,
		    approved_at = CASE WHEN $3 = 'approved' THEN $4::timestamptz ELSE approved_at END
		WHERE id = $1 AND target_user = $2 AND status = 'pending'
		RETURNING ` + traitColumns
	t, err := scanTrait(r.pool.QueryRow(ctx, query, id, targetUserID, status, at))
	if err != nil {
		return domain.Trait{}, notFound(err)
	}
	return t, nil
}

func (r *PgTraitRepository) Upvote(ctx context.Context, id string) (domain.Trait, error) {
	query := `UPDATE traits SET upvotes = upvotes + 1 WHERE id = $1 RETURNING ` + traitColumns
	t, err := scanTrait(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Trait{}, notFound(err)
	}
	return t, nil
}

func (r *PgTraitRepository) list(ctx context.Context, query string, args ...any) ([]domain.Trait, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	traits := []domain.Trait{}
	for rows.Next() {
		t, err := scanTrait(rows)
		if err != nil {
			return nil, err
		}
		traits = append(traits, t)
	}
	return traits, rows.Err()
}

func scanTrait(row pgx.Row) (domain.Trait, error) {
	var t domain.Trait
	err := row.Scan(
		&t.ID,
		&t.Word,
		&t.Category,
		&t.Status,
		&t.Upvotes,
		&t.Color,
		&t.TargetUserID,
		&t.CreatedByUserID,
		&t.ApprovedAt,
		&t.CreatedAt,
	)
	return t, err
}
