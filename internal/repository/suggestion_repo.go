package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"youtrait/internal/domain"
)

type SuggestionRepository interface {
	InsertBatch(ctx context.Context, suggestions []domain.Suggestion) error
	ListPending(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error)
	Transition(ctx context.Context, id, userID, status string, usedAt *time.Time) (bool, error)
}

type PgSuggestionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSuggestionRepository(pool *pgxpool.Pool) *PgSuggestionRepository {
	return &PgSuggestionRepository{pool: pool}
}

// InsertBatch guarda todas las sugerencias de una corrida en una transacción.
func (r *PgSuggestionRepository) InsertBatch(ctx context.Context, suggestions []domain.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	const query = `
		INSERT INTO ai_trait_suggestions
			(id, user_id, suggested_trait, category, confidence_score, reasoning, source_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range suggestions {
		batch.Queue(query,
			s.ID,
			s.UserID,
			s.SuggestedTrait,
			s.Category,
			s.ConfidenceScore,
			s.Reasoning,
			s.SourceType,
			s.Status,
			s.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgSuggestionRepository) ListPending(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error) {
	const query = `
		SELECT id, user_id, suggested_trait, category, confidence_score, reasoning, source_type, status, used_at, created_at
		FROM ai_trait_suggestions
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY confidence_score DESC, created_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Suggestion, error) {
		var s domain.Suggestion
		err := row.Scan(
			&s.ID,
			&s.UserID,
			&s.SuggestedTrait,
			&s.Category,
			&s.ConfidenceScore,
			&s.Reasoning,
			&s.SourceType,
			&s.Status,
			&s.UsedAt,
			&s.CreatedAt,
		)
		return s, err
	})
}

// Transition cambia una sugerencia pendiente del usuario. Devuelve false si
// ya era terminal o no existe; no es un error.
func (r *PgSuggestionRepository) Transition(ctx context.Context, id, userID, status string, usedAt *time.Time) (bool, error) {
	const query = `
		UPDATE ai_trait_suggestions
		SET status = $3, used_at = COALESCE($4, used_at)
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, id, userID, status, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
