package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New creates a logfmt logger writing to stdout and, when dir is not empty,
// to a timestamped file in dir as well. The returned closer releases the file.
func New(prefix, dir string, debug bool) (log.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFile := filepath.Join(dir, fmt.Sprintf("%s_%s.log", prefix, timestamp))

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller, "app", prefix)
	if debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return logger, closer, nil
}

// LogWithTiming logs a message with timing information
func LogWithTiming(logger log.Logger, startTime time.Time, msg string, keyvals ...interface{}) {
	keyvals = append([]interface{}{"msg", msg, "took", time.Since(startTime)}, keyvals...)
	_ = level.Info(logger).Log(keyvals...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
