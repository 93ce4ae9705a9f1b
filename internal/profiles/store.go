package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/amm-validator/internal/constants"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

var keyRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid profile key %q", key)
	}
	return nil
}

// Upsert stores cfg under key after validating it.
func (s *Store) Upsert(ctx context.Context, key string, cfg security.Config) (*Profile, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", key, err)
	}

	p := &Profile{Key: key, Config: cfg, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, profileKey(key), b, 0)
	pipe.SAdd(ctx, constants.RedisKeyProfileIndex, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return p, nil
}

func (s *Store) Get(ctx context.Context, key string) (*Profile, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, profileKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// Resolve returns the profile's config for key, or fallback when no profile
// exists.
func (s *Store) Resolve(ctx context.Context, key string, fallback security.Config) (security.Config, error) {
	p, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return security.Config{}, err
	}
	return p.Config, nil
}

func (s *Store) List(ctx context.Context) ([]*Profile, error) {
	keys, err := s.client.SMembers(ctx, constants.RedisKeyProfileIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list profiles index: %w", err)
	}
	if len(keys) == 0 {
		return []*Profile{}, nil
	}

	redisKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			continue
		}
		redisKeys = append(redisKeys, profileKey(k))
	}
	if len(redisKeys) == 0 {
		return []*Profile{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget profiles: %w", err)
	}

	out := make([]*Profile, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, profileKey(key))
	pipe.SRem(ctx, constants.RedisKeyProfileIndex, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return nil
}

func profileKey(key string) string {
	return constants.RedisKeyProfilePrefix + key
}
