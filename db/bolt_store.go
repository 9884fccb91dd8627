package db

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"student-analytics-server-go/models"
)

var snapshotKey = []byte("snapshot")

// BoltStore keeps the roster snapshot under a single key of a bbolt bucket.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	logger log.Logger
}

func NewBoltStore(path, bucketName string, logger log.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", path)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt database %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating bucket %s", bucketName)
	}

	return &BoltStore{
		db:     db,
		bucket: []byte(bucketName),
		logger: log.With(logger, "store", "bolt", "path", path),
	}, nil
}

func (s *BoltStore) SaveAll(students []models.Student) error {
	data, err := EncodeSnapshot(students)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put(snapshotKey, data)
	})
	if err != nil {
		return errors.Wrap(err, "saving snapshot to bolt")
	}
	_ = level.Debug(s.logger).Log("msg", "snapshot saved", "students", len(students))
	return nil
}

// LoadAll reads the snapshot. A missing bucket or key means nothing was saved yet.
func (s *BoltStore) LoadAll() ([]models.Student, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		// the value is only valid inside the transaction
		if v := b.Get(snapshotKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading snapshot from bolt")
	}
	return DecodeSnapshot(data)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
