package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a context-aware key-value wrapper over go-redis with TTLs and
// prefix listing. It backs session records, the token blacklist and one-time
// magic-link flags.
type Storage struct {
	db            redis.UniversalClient
	scanBatchSize int64
}

// NewStorage wraps redisClient with a scan batch size of 1000.
func NewStorage(redisClient redis.UniversalClient) *Storage {
	return &Storage{
		db:            redisClient,
		scanBatchSize: 1000,
	}
}

// NewStorageWithConfig is NewStorage with the scan batch size taken from cfg.
func NewStorageWithConfig(redisClient redis.UniversalClient, cfg Config) *Storage {
	s := NewStorage(redisClient)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = int64(cfg.ScanBatchSize)
	}
	return s
}

// Get returns nil for empty keys and missing values (redis.Nil becomes nil).
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Take reads and deletes key atomically. Missing keys yield nil.
func (s *Storage) Take(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.db.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores key-value with expiration. Zero duration means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, key, val, exp).Err()
}

// Exists reports whether key is present.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	n, err := s.db.Exists(ctx, key).Result()
	return n > 0, err
}

// Delete removes key and reports whether it existed.
func (s *Storage) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	n, err := s.db.Del(ctx, key).Result()
	return n > 0, err
}

// Keys returns every key starting with prefix. It uses SCAN so Redis is never
// blocked, which means keys written during the scan may or may not appear.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(prefix) + "*"

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, match, s.scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)

		if cursor = next; cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Close terminates the Redis connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Conn returns the underlying Redis client for advanced operations.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
