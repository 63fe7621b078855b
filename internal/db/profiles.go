package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getProfile = `
SELECT id, preferred_uf, updated_at
FROM profiles
WHERE id = $1`

func (q *Queries) GetProfile(ctx context.Context, id pgtype.UUID) (Profile, error) {
	var p Profile
	err := q.db.QueryRow(ctx, getProfile, id).Scan(&p.ID, &p.PreferredUF, &p.UpdatedAt)
	return p, err
}

type UpsertProfileUFParams struct {
	ID          pgtype.UUID
	PreferredUF pgtype.Text
}

const upsertProfileUF = `
INSERT INTO profiles (id, preferred_uf)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET preferred_uf = EXCLUDED.preferred_uf, updated_at = now()
RETURNING id, preferred_uf, updated_at`

func (q *Queries) UpsertProfileUF(ctx context.Context, arg UpsertProfileUFParams) (Profile, error) {
	var p Profile
	err := q.db.QueryRow(ctx, upsertProfileUF, arg.ID, arg.PreferredUF).Scan(&p.ID, &p.PreferredUF, &p.UpdatedAt)
	return p, err
}
