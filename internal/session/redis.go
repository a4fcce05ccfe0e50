package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/piumal/stingraybot/internal/config"
	"github.com/piumal/stingraybot/internal/identity"
)

const connectTimeout = 5 * time.Second

// NewRedisClient connects to Redis using the given configuration and verifies
// the connection with a ping before returning.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// redisStore implements Store on one Redis list per hashed session key.
// The append and the expiry refresh are issued in a single MULTI/EXEC
// transaction so no reader can observe one without the other.
type redisStore struct {
	client      *redis.Client
	hasher      *identity.Hasher
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewRedisStore creates a Redis-backed session store. idleTimeout is the
// sliding expiry applied on every append.
func NewRedisStore(client *redis.Client, hasher *identity.Hasher, idleTimeout time.Duration, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &redisStore{
		client:      client,
		hasher:      hasher,
		idleTimeout: idleTimeout,
		logger:      logger.With("component", "session_store"),
	}
}

func (s *redisStore) sessionKey(rawID string) (string, error) {
	derived, err := s.hasher.DeriveKey(rawID)
	if err != nil {
		return "", fmt.Errorf("failed to derive session key: %w", err)
	}
	return fmt.Sprintf("session:%s", derived), nil
}

func (s *redisStore) Append(ctx context.Context, rawID string, entry Entry) error {
	key, err := s.sessionKey(rawID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.idleTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append session entry", "role", entry.Role, "error", err)
		return fmt.Errorf("failed to append session entry: %w", err)
	}

	return nil
}

func (s *redisStore) History(ctx context.Context, rawID string) ([]Entry, error) {
	key, err := s.sessionKey(rawID)
	if err != nil {
		return nil, err
	}

	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read session history", "error", err)
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	return s.decodeEntries(ctx, values), nil
}

func (s *redisStore) AppendAndRead(ctx context.Context, rawID string, entry Entry) ([]Entry, error) {
	key, err := s.sessionKey(rawID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.idleTimeout)
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append and read session", "role", entry.Role, "error", err)
		return nil, fmt.Errorf("failed to append and read session: %w", err)
	}

	return s.decodeEntries(ctx, rangeCmd.Val()), nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// decodeEntries unmarshals stored list values, skipping any it cannot decode.
// A corrupt value loses one entry, not the whole session.
func (s *redisStore) decodeEntries(ctx context.Context, values []string) []Entry {
	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		var e Entry
		if err := json.Unmarshal([]byte(value), &e); err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable session entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
