package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures RedisSeriesStore.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	BlobName string
}

// WithAddr sets host and port.
func WithAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
		c.Port = port
	}
}

// WithAuth sets password and database.
func WithAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithPrefix sets the key namespace prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

// WithBlobName sets the series blob name.
func WithBlobName(name string) RedisOption {
	return func(c *RedisConfig) { c.BlobName = name }
}

// RedisSeriesStore persists the series CSV blob as a single Redis value.
// A SET is atomic, which gives the full-overwrite semantics the store
// contract requires.
type RedisSeriesStore struct {
	client *redis.Client
	key    string
}

// NewRedisSeriesStore creates the store and verifies connectivity.
func NewRedisSeriesStore(opts ...RedisOption) (*RedisSeriesStore, error) {
	cfg := &RedisConfig{
		Host:     "localhost",
		Port:     6379,
		Prefix:   "hodlwatch",
		BlobName: "bitcoin_daily",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	key := strings.Join([]string{cfg.Prefix, "series", cfg.BlobName}, ":")
	return &RedisSeriesStore{client: client, key: key}, nil
}

func (s *RedisSeriesStore) Exists(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSeriesStore) Load(ctx context.Context) (models.Series, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domrepo.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	series, err := models.DecodeSeriesCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode blob %s: %w", s.key, err)
	}
	return series, nil
}

func (s *RedisSeriesStore) Save(ctx context.Context, series models.Series) error {
	var buf bytes.Buffer
	if err := series.EncodeCSV(&buf); err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if err := s.client.Set(ctx, s.key, buf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSeriesStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisSeriesStore) Close() error { return s.client.Close() }

var _ domrepo.SeriesStore = (*RedisSeriesStore)(nil)
