package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"youtrait/internal/domain"
)

type BestieRepository interface {
	Create(ctx context.Context, req domain.BestieRequest) error
	Respond(ctx context.Context, id, requestedID, status string, at time.Time) (domain.BestieRequest, error)
	ListPendingFor(ctx context.Context, requestedID string) ([]domain.BestieRequest, error)
	ListAccepted(ctx context.Context, userID string) ([]domain.BestieRequest, error)
}

type ReactionRepository interface {
	Create(ctx context.Context, reaction domain.Reaction) error
}

type PgBestieRepository struct {
	pool *pgxpool.Pool
}

func NewPgBestieRepository(pool *pgxpool.Pool) *PgBestieRepository {
	return &PgBestieRepository{pool: pool}
}

const bestieColumns = `id, requester_id, requested_id, message, status, responded_at, created_at`

func (r *PgBestieRepository) Create(ctx context.Context, req domain.BestieRequest) error {
	const query = `
		INSERT INTO bestie_requests (id, requester_id, requested_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.RequesterID,
		req.RequestedID,
		req.Message,
		req.Status,
		req.CreatedAt,
	)
	return err
}

// Respond cierra una solicitud pendiente dirigida a requestedID.
func (r *PgBestieRepository) Respond(ctx context.Context, id, requestedID, status string, at time.Time) (domain.BestieRequest, error) {
	query := `
		UPDATE bestie_requests
		SET status = $3, responded_at = $4
		WHERE id = $1 AND requested_id = $2 AND status = 'pending'
		RETURNING ` + bestieColumns
	req, err := scanBestie(r.pool.QueryRow(ctx, query, id, requestedID, status, at))
	if err != nil {
		return domain.BestieRequest{}, notFound(err)
	}
	return req, nil
}

func (r *PgBestieRepository) ListPendingFor(ctx context.Context, requestedID string) ([]domain.BestieRequest, error) {
	query := `SELECT ` + bestieColumns + ` FROM bestie_requests
		WHERE requested_id = $1 AND status = 'pending' ORDER BY created_at DESC`
	return r.list(ctx, query, requestedID)
}

// ListAccepted devuelve las relaciones aceptadas en cualquiera de los dos sentidos.
func (r *PgBestieRepository) ListAccepted(ctx context.Context, userID string) ([]domain.BestieRequest, error) {
	query := `SELECT ` + bestieColumns + ` FROM bestie_requests
		WHERE (requester_id = $1 OR requested_id = $1) AND status = 'accepted' ORDER BY responded_at`
	return r.list(ctx, query, userID)
}

func (r *PgBestieRepository) list(ctx context.Context, query string, args ...any) ([]domain.BestieRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BestieRequest, error) {
		return scanBestie(row)
	})
}

func scanBestie(row pgx.Row) (domain.BestieRequest, error) {
	var req domain.BestieRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.RequestedID,
		&req.Message,
		&req.Status,
		&req.RespondedAt,
		&req.CreatedAt,
	)
	return req, err
}

type PgReactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgReactionRepository(pool *pgxpool.Pool) *PgReactionRepository {
	return &PgReactionRepository{pool: pool}
}

func (r *PgReactionRepository) Create(ctx context.Context, reaction domain.Reaction) error {
	const query = `
		INSERT INTO trait_reactions_enhanced (id, trait_id, user_id, emoji, animation_type, position_x, position_y, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		reaction.ID,
		reaction.TraitID,
		reaction.UserID,
		reaction.Emoji,
		reaction.AnimationType,
		reaction.PositionX,
		reaction.PositionY,
		reaction.CreatedAt,
	)
	return err
}
