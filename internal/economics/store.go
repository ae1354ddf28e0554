package economics

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

const guidelinesCacheKey = "econ:guidelines"

// Store persists the single active guideline document in Postgres and keeps
// a TTL-bounded copy in Redis. A nil pool serves the built-in defaults, so
// the service runs without a database in local setups.
type Store struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	TTL   time.Duration
}

var _ GuidelineSource = (*Store)(nil)

// Guidelines returns the active rule set: cached copy, stored row, or
// defaults when nothing has been saved yet.
func (s *Store) Guidelines(ctx context.Context) (Guidelines, error) {
	if s == nil || s.Pool == nil {
		return DefaultGuidelines(), nil
	}
	if s.Redis != nil {
		data, err := s.Redis.Get(ctx, guidelinesCacheKey).Bytes()
		switch {
		case err == nil:
			var cached Guidelines
			if uerr := json.Unmarshal(data, &cached); uerr == nil {
				return cached, nil
			}
			_ = s.Redis.Del(ctx, guidelinesCacheKey).Err()
		case !errors.Is(err, redis.Nil):
			zerolog.Ctx(ctx).Warn().Err(err).Msg("guidelines cache read")
		}
	}

	var doc []byte
	err := s.Pool.QueryRow(ctx, `SELECT doc FROM economics_guidelines WHERE singleton`).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultGuidelines(), nil
		}
		return Guidelines{}, fmt.Errorf("economics: load guidelines: %w", err)
	}
	var g Guidelines
	if err := json.Unmarshal(doc, &g); err != nil {
		return Guidelines{}, fmt.Errorf("economics: decode guidelines: %w", err)
	}
	if err := g.Validate(); err != nil {
		// A bad stored document must surface, not silently price orders.
		return Guidelines{}, err
	}
	s.cache(ctx, doc)
	return g, nil
}

// Save validates and upserts the guideline document, then invalidates the
// cached copy so the next read sees the new rules.
func (s *Store) Save(ctx context.Context, g Guidelines) error {
	if s == nil || s.Pool == nil {
		return errors.New("economics: store not configured")
	}
	if err := g.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("economics: encode guidelines: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO economics_guidelines (singleton, doc, updated_at)
		VALUES (TRUE, $1, now())
		ON CONFLICT (singleton) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, doc)
	if err != nil {
		return fmt.Errorf("economics: save guidelines: %w", err)
	}
	if s.Redis != nil {
		if derr := s.Redis.Del(ctx, guidelinesCacheKey).Err(); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Msg("guidelines cache invalidate")
		}
	}
	return nil
}

func (s *Store) cache(ctx context.Context, doc []byte) {
	if s.Redis == nil || s.TTL <= 0 {
		return
	}
	if err := s.Redis.Set(ctx, guidelinesCacheKey, doc, s.TTL).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("guidelines cache write")
	}
}
