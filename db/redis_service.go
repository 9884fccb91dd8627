package db

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"student-analytics-server-go/models"
)

const metaSuffix = ":meta" // Hash: {key}:meta -> version, students, savedAt

// RedisService stores the roster snapshot in Redis
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context // Base context
	Key    string          // String key holding the snapshot
	logger log.Logger
}

// NewRedisService creates a new RedisService writing under key
func NewRedisService(client *redis.Client, key string, logger log.Logger) *RedisService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
		Key:    key,
		logger: log.With(logger, "store", "redis", "key", key),
	}
}

func (s *RedisService) metaKey() string {
	return s.Key + metaSuffix
}

// SaveAll writes the snapshot and its metadata in one MULTI/EXEC transaction
func (s *RedisService) SaveAll(students []models.Student) error {
	data, err := EncodeSnapshot(students)
	if err != nil {
		return err
	}

	_, err = s.Client.TxPipelined(s.Ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(s.Ctx, s.Key, data, 0)
		pipe.HSet(s.Ctx, s.metaKey(), map[string]interface{}{
			"version":  SnapshotVersion,
			"students": len(students),
			"savedAt":  time.Now().UTC().Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		_ = level.Error(s.logger).Log("msg", "error saving snapshot", "err", err)
		return errors.Wrap(err, "saving snapshot to redis")
	}
	_ = level.Debug(s.logger).Log("msg", "snapshot saved", "students", len(students))
	return nil
}

// LoadAll reads the snapshot. A missing key means nothing was saved yet.
func (s *RedisService) LoadAll() ([]models.Student, error) {
	data, err := s.Client.Get(s.Ctx, s.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Student{}, nil
		}
		return nil, errors.Wrap(err, "loading snapshot from redis")
	}
	students, err := DecodeSnapshot(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading redis key %s", s.Key)
	}
	return students, nil
}

// SavedCount returns the student count recorded by the last save, 0 when nothing was saved.
func (s *RedisService) SavedCount() (int, error) {
	val, err := s.Client.HGet(s.Ctx, s.metaKey(), "students").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "reading snapshot metadata")
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing student count %q", val)
	}
	return n, nil
}

// Close closes the underlying client
func (s *RedisService) Close() error {
	return s.Client.Close()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}
	return rdb, nil
}
