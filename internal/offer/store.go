package offer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const offerCachePrefix = "offer:id:"

// Store persists offer configurations as JSON documents in Postgres with a
// TTL-bounded Redis cache in front. Writes invalidate the cache entry so
// admin edits take effect immediately.
type Store struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	TTL   time.Duration
}

// ErrNotFound is returned when no offer exists for the requested id.
var ErrNotFound = errors.New("offer: not found")

// Get loads an offer by id, consulting the cache first.
func (s *Store) Get(ctx context.Context, id string) (*Offer, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("offer: store not configured")
	}
	key := offerCachePrefix + id
	if s.Redis != nil {
		data, err := s.Redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached Offer
			if uerr := json.Unmarshal(data, &cached); uerr == nil {
				return &cached, nil
			}
			// Corrupt entry: fall through to the database.
			_ = s.Redis.Del(ctx, key).Err()
		case !errors.Is(err, redis.Nil):
			zerolog.Ctx(ctx).Warn().Err(err).Str("offer_id", id).Msg("offer cache read")
		}
	}

	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT doc FROM offers WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("offer: load %q: %w", id, err)
	}
	var o Offer
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("offer: decode %q: %w", id, err)
	}
	s.cache(ctx, key, doc)
	return &o, nil
}

// List returns every stored offer, newest first.
func (s *Store) List(ctx context.Context) ([]Offer, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("offer: store not configured")
	}
	rows, err := s.Pool.Query(ctx, `SELECT doc FROM offers ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("offer: list: %w", err)
	}
	defer rows.Close()

	var out []Offer
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("offer: list scan: %w", err)
		}
		var o Offer
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, fmt.Errorf("offer: list decode: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Save validates and upserts the offer, then drops any cached copy.
func (s *Store) Save(ctx context.Context, o *Offer) error {
	if s == nil || s.Pool == nil {
		return errors.New("offer: store not configured")
	}
	if o == nil {
		return errors.New("offer: nil offer")
	}
	if err := o.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("offer: encode %q: %w", o.ID, err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO offers (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, o.ID, doc)
	if err != nil {
		return fmt.Errorf("offer: save %q: %w", o.ID, err)
	}
	s.invalidate(ctx, offerCachePrefix+o.ID)
	return nil
}

// Delete removes the offer and its cached copy.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.Pool == nil {
		return errors.New("offer: store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("offer: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, offerCachePrefix+id)
	return nil
}

func (s *Store) cache(ctx context.Context, key string, doc []byte) {
	if s.Redis == nil || s.TTL <= 0 {
		return
	}
	if err := s.Redis.Set(ctx, key, doc, s.TTL).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("offer cache write")
	}
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("offer cache invalidate")
	}
}
