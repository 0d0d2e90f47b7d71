package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
)

// RedisStore keeps user memory documents in Redis as JSON values with a
// TTL. Per-user writes go through a read-modify-write guarded by WATCH,
// so concurrent requests for the same user cannot interleave updates.
type RedisStore struct {
	client       *redis.Client
	config       config.MemoryConfig
	logger       *logger.Logger
	historyLimit int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.MemoryConfig, log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	store := &RedisStore{
		client:       client,
		config:       cfg,
		logger:       log,
		historyLimit: cfg.HistoryLimit,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("User memory store initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("ttl", cfg.TTL))

	return store, nil
}

func (s *RedisStore) key(userID string) string {
	return fmt.Sprintf("%s:mem:%s", s.config.KeyPrefix, userID)
}

// Get returns the user's memory document, creating it on first access.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Profile, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		profile := NewProfile()
		if err := s.put(ctx, userID, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory lookup failed: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		s.logger.Error("Corrupted memory document, resetting",
			zap.String("user_id", userID), zap.Error(err))
		s.client.Del(ctx, s.key(userID))
		return NewProfile(), nil
	}

	return &profile, nil
}

func (s *RedisStore) put(ctx context.Context, userID string, profile *Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal memory document: %w", err)
	}

	if err := s.client.Set(ctx, s.key(userID), data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store memory document: %w", err)
	}
	return nil
}

// update applies fn to the user's document inside a WATCH transaction,
// retrying on write conflicts.
func (s *RedisStore) update(ctx context.Context, userID string, fn func(*Profile)) error {
	key := s.key(userID)

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			profile := NewProfile()

			data, err := tx.Get(ctx, key).Result()
			if err != nil && err != redis.Nil {
				return err
			}
			if err == nil {
				if jsonErr := json.Unmarshal([]byte(data), profile); jsonErr != nil {
					profile = NewProfile()
				}
			}

			fn(profile)

			encoded, err := json.Marshal(profile)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, s.config.TTL)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return nil
		}
		if err != redis.TxFailedErr {
			return fmt.Errorf("memory update failed: %w", err)
		}
	}

	return fmt.Errorf("memory update failed: too many write conflicts for user %s", userID)
}

// AppendTurn appends one exchange, evicting the oldest turns beyond the
// history limit.
func (s *RedisStore) AppendTurn(ctx context.Context, userID, userMessage, botReply string) error {
	return s.update(ctx, userID, func(p *Profile) {
		p.History = append(p.History, Turn{User: userMessage, Bot: botReply})
		if len(p.History) > s.historyLimit {
			p.History = p.History[len(p.History)-s.historyLimit:]
		}
	})
}

// StorePreference appends a value to a preference list if absent.
func (s *RedisStore) StorePreference(ctx context.Context, userID, key, value string) error {
	return s.update(ctx, userID, func(p *Profile) {
		addPreference(p, key, value)
	})
}

// SetLastSeenStore records the store last surfaced to the user.
func (s *RedisStore) SetLastSeenStore(ctx context.Context, userID string, store StoreInfo) error {
	return s.update(ctx, userID, func(p *Profile) {
		p.LastSeenStore = &store
	})
}

// SetLastOrder records the user's last order payload.
func (s *RedisStore) SetLastOrder(ctx context.Context, userID string, order map[string]any) error {
	return s.update(ctx, userID, func(p *Profile) {
		p.LastOrder = order
	})
}

// Reset discards one user's memory.
func (s *RedisStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset user memory: %w", err)
	}
	return nil
}

// ResetAll discards every user's memory via a prefix scan.
func (s *RedisStore) ResetAll(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:mem:*", s.config.KeyPrefix)

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan memory keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	batchSize := 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete memory keys: %w", err)
		}
	}

	s.logger.Info("User memory cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
