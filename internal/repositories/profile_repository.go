package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ProfileRepository keeps the last_seen column of profiles current.
type ProfileRepository interface {
	TouchLastSeen(ctx context.Context, userID string, email string) error
	MarkLastSeen(ctx context.Context, userID string) error
}

// ProfileRepo is a sqlx-backed implementation.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// TouchLastSeen upserts the profile with a fresh last_seen.
func (r *ProfileRepo) TouchLastSeen(ctx context.Context, userID string, email string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (id, email, last_seen) VALUES ($1, $2, NOW())
        ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, last_seen = EXCLUDED.last_seen`, userID, email)
	return err
}

// MarkLastSeen stamps last_seen on an existing profile.
func (r *ProfileRepo) MarkLastSeen(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET last_seen = NOW() WHERE id=$1`, userID)
	return err
}
