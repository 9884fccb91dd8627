package db

import (
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"student-analytics-server-go/models"
)

// FileStore keeps the roster snapshot in a single file on disk.
type FileStore struct {
	Path   string
	logger log.Logger
}

// NewFileStore returns a FileStore for path. The file is created on the first save.
func NewFileStore(path string, logger log.Logger) *FileStore {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &FileStore{
		Path:   path,
		logger: log.With(logger, "store", "file", "path", path),
	}
}

// SaveAll replaces the file contents. The snapshot goes to a temporary file
// in the same directory first, so a failed save never truncates the last good one.
func (s *FileStore) SaveAll(students []models.Student) error {
	data, err := EncodeSnapshot(students)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary snapshot")
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing snapshot")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing snapshot")
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return errors.Wrapf(err, "replacing %s", s.Path)
	}
	_ = level.Debug(s.logger).Log("msg", "snapshot saved", "students", len(students), "bytes", len(data))
	return nil
}

// LoadAll reads the snapshot. A missing file means nothing was saved yet.
func (s *FileStore) LoadAll() ([]models.Student, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			_ = level.Info(s.logger).Log("msg", "no existing data file, starting empty")
			return []models.Student{}, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.Path)
	}
	students, err := DecodeSnapshot(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", s.Path)
	}
	return students, nil
}

func (s *FileStore) Close() error { return nil }
