package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	port "freelancehub/internal/repository/port"
)

// PgUserDirectory reads display profiles from the marketplace's users table.
type PgUserDirectory struct {
	pool *pgxpool.Pool
}

func NewPgUserDirectory(pool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{pool: pool}
}

var _ port.UserDirectory = (*PgUserDirectory)(nil)

func (d *PgUserDirectory) GetProfile(ctx context.Context, userID string) (port.Profile, error) {
	if d == nil || d.pool == nil {
		return port.Profile{}, errors.New("PgUserDirectory: nil pool")
	}
	var p port.Profile
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(avatar_url, '') FROM users WHERE id = $1`, userID,
	).Scan(&p.ID, &p.Name, &p.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return port.Profile{}, port.ErrUnknownUser
	}
	if err != nil {
		return port.Profile{}, err
	}
	return p, nil
}

func (d *PgUserDirectory) GetProfiles(ctx context.Context, userIDs []string) (map[string]port.Profile, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgUserDirectory: nil pool")
	}
	out := make(map[string]port.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := d.pool.Query(ctx,
		`SELECT id, name, COALESCE(avatar_url, '') FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p port.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
