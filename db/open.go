// Package db persists the roster as a single versioned snapshot and exchanges
// students with spreadsheets.
package db

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"student-analytics-server-go/config"
	"student-analytics-server-go/models"
)

// Store is a roster gateway backed by a resource that must be released.
type Store interface {
	SaveAll(students []models.Student) error
	LoadAll() ([]models.Student, error)
	Close() error
}

// Open returns the store selected by cfg.Store.Driver.
func Open(cfg *config.Config, logger log.Logger) (Store, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	switch cfg.Store.Driver {
	case config.DriverFile:
		_ = level.Info(logger).Log("msg", "using file store", "path", cfg.Store.Path)
		return NewFileStore(cfg.Store.Path, logger), nil
	case config.DriverRedis:
		client, err := InitializeRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		s := NewRedisService(client, cfg.Redis.Key, logger)
		saved, err := s.SavedCount()
		if err != nil {
			s.Close()
			return nil, err
		}
		_ = level.Info(logger).Log("msg", "connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB, "savedStudents", saved)
		return s, nil
	case config.DriverBolt:
		s, err := NewBoltStore(cfg.Bolt.Path, cfg.Bolt.Bucket, logger)
		if err != nil {
			return nil, err
		}
		_ = level.Info(logger).Log("msg", "using bolt store", "path", cfg.Bolt.Path, "bucket", cfg.Bolt.Bucket)
		return s, nil
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
