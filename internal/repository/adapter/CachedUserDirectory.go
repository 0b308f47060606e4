package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "freelancehub/internal/infrastructure/cache/port"
	port "freelancehub/internal/repository/port"
)

const profileTTL = 10 * time.Minute

// CachedUserDirectory is a read-through cache over another UserDirectory.
// Display names change rarely; a short TTL keeps conversation-list and search
// rendering off the users table. Cache failures degrade to the inner lookup.
type CachedUserDirectory struct {
	inner port.UserDirectory
	cache cacheport.Cache
}

func NewCachedUserDirectory(inner port.UserDirectory, cache cacheport.Cache) *CachedUserDirectory {
	return &CachedUserDirectory{inner: inner, cache: cache}
}

var _ port.UserDirectory = (*CachedUserDirectory)(nil)

func cacheKey(userID string) string { return "chat:profile:" + userID }

func (d *CachedUserDirectory) GetProfile(ctx context.Context, userID string) (port.Profile, error) {
	if cached, err := d.cache.Get(ctx, cacheKey(userID)); err == nil {
		var p port.Profile
		if json.Unmarshal([]byte(cached), &p) == nil {
			return p, nil
		}
	}

	p, err := d.inner.GetProfile(ctx, userID)
	if err != nil {
		return port.Profile{}, err
	}
	d.store(ctx, p)
	return p, nil
}

func (d *CachedUserDirectory) GetProfiles(ctx context.Context, userIDs []string) (map[string]port.Profile, error) {
	out := make(map[string]port.Profile, len(userIDs))
	var missing []string

	for _, id := range userIDs {
		cached, err := d.cache.Get(ctx, cacheKey(id))
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var p port.Profile
		if json.Unmarshal([]byte(cached), &p) != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = p
	}

	if len(missing) > 0 {
		fetched, err := d.inner.GetProfiles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, p := range fetched {
			out[id] = p
			d.store(ctx, p)
		}
	}
	return out, nil
}

func (d *CachedUserDirectory) store(ctx context.Context, p port.Profile) {
	buf, err := json.Marshal(p)
	if err != nil {
		return
	}
	// Best-effort; a failed write just means a future miss.
	_ = d.cache.Set(ctx, cacheKey(p.ID), string(buf), profileTTL)
}
