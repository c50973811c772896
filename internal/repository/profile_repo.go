package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"youtrait/internal/domain"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (domain.Profile, error)
	Update(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `id, username, full_name, bio, location, website, avatar_url, created_at`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (id, username, full_name, bio, location, website, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.Username,
		profile.FullName,
		profile.Bio,
		profile.Location,
		profile.Website,
		profile.AvatarURL,
		profile.CreatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *PgProfileRepository) GetByUsername(ctx context.Context, username string) (domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE username = $1`
	return r.scanOne(ctx, query, username)
}

// Update reescribe los campos editables y devuelve el perfil resultante.
func (r *PgProfileRepository) Update(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = $2, bio = $3, location = $4, website = $5
		WHERE id = $1
		RETURNING ` + profileColumns
	return r.scanOne(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Bio,
		profile.Location,
		profile.Website,
	)
}

func (r *PgProfileRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	const query = `UPDATE profiles SET avatar_url = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, avatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgProfileRepository) scanOne(ctx context.Context, query string, args ...any) (domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.Bio,
		&p.Location,
		&p.Website,
		&p.AvatarURL,
		&p.CreatedAt,
	)
	if err != nil {
		return domain.Profile{}, notFound(err)
	}
	return p, nil
}
