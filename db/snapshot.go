package db

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"student-analytics-server-go/models"
)

// SnapshotVersion is the only snapshot layout this package reads and writes.
const SnapshotVersion = 1

var (
	ErrCorruptSnapshot    = errors.New("corrupt snapshot")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

type snapshot struct {
	Version  int              `json:"version"`
	Students []models.Student `json:"students"`
}

// EncodeSnapshot serializes the students, keeping their order.
func EncodeSnapshot(students []models.Student) ([]byte, error) {
	out := make([]models.Student, len(students))
	copy(out, students)
	for i := range out {
		if out[i].Marks == nil {
			out[i].Marks = []models.Mark{}
		}
	}
	data, err := json.Marshal(snapshot{Version: SnapshotVersion, Students: out})
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	return data, nil
}

// DecodeSnapshot parses data written by EncodeSnapshot. Empty data decodes to no students.
// Every record is validated and roll numbers must be unique.
func DecodeSnapshot(data []byte) ([]models.Student, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Student{}, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(ErrCorruptSnapshot, "decoding snapshot: %v", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", snap.Version)
	}

	seen := make(map[string]struct{}, len(snap.Students))
	students := make([]models.Student, 0, len(snap.Students))
	for i, s := range snap.Students {
		if s.Marks == nil {
			s.Marks = []models.Mark{}
		}
		if err := s.Validate(); err != nil {
			return nil, errors.Wrapf(ErrCorruptSnapshot, "student #%d: %v", i, err)
		}
		if _, ok := seen[s.RollNumber]; ok {
			return nil, errors.Wrapf(ErrCorruptSnapshot, "duplicate roll number %q", s.RollNumber)
		}
		seen[s.RollNumber] = struct{}{}
		students = append(students, s)
	}
	return students, nil
}
