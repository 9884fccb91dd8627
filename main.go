package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"student-analytics-server-go/analytics"
	"student-analytics-server-go/config"
	"student-analytics-server-go/db"
	"student-analytics-server-go/handlers"
	"student-analytics-server-go/logging"
	"student-analytics-server-go/models"
	"student-analytics-server-go/roster"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred close has happened
func run() int {
	cfg, err := config.Load(".env", os.Getenv("ANALYTICS_CONFIG"))
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}

	logger, closer, err := logging.New("analytics", cfg.LogDir, cfg.Debug)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	store, err := db.Open(cfg, logger)
	if err != nil {
		_ = level.Error(logger).Log("msg", "could not open store", "driver", cfg.Store.Driver, "err", err)
		return 1
	}
	defer store.Close()

	// A failed load leaves an empty roster; the server still starts
	r, err := roster.New(store, logger)
	if err != nil {
		_ = level.Warn(logger).Log("msg", "starting with an empty roster", "err", err)
	}

	if cfg.Seed {
		checkAndSeedData(r, logger)
	}

	engine := analytics.NewEngine(cfg.GradeScale())
	engine.TopN = cfg.Analytics.Top
	engine.AttentionThreshold = cfg.Analytics.Threshold

	// Create API Handler (injecting the roster)
	apiHandler := handlers.NewAPIHandler(r, engine, logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(logger))
	apiHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	_ = level.Info(logger).Log("msg", "starting server", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver, "scale", engine.Scale.Name())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	if err := serve(srv, quit, cfg.HTTP.ShutdownTimeout, logger); err != nil {
		_ = level.Error(logger).Log("msg", "failed to run server", "err", err)
		return 1
	}
	return 0
}

// serve runs srv until it fails or quit fires, then shuts it down gracefully.
// A listener failure is returned to the caller instead of ending the process.
func serve(srv *http.Server, quit <-chan os.Signal, timeout time.Duration, logger log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		_ = level.Info(logger).Log("msg", "shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = level.Error(logger).Log("msg", "forced shutdown", "err", err)
	}
	_ = level.Info(logger).Log("msg", "server stopped")
	return nil
}

// checkAndSeedData adds sample students when the roster is empty
func checkAndSeedData(r *roster.Roster, logger log.Logger) {
	if n := r.Len(); n > 0 {
		_ = level.Info(logger).Log("msg", "existing data found, skipping seed", "students", n)
		return
	}
	_ = level.Info(logger).Log("msg", "no existing students, adding sample data")
	start := time.Now()

	for _, s := range sampleStudents() {
		if _, err := r.AddStudent(s); err != nil {
			_ = level.Warn(logger).Log("msg", "error adding sample student", "roll", s.RollNumber, "err", err)
		}
	}
	logging.LogWithTiming(logger, start, "sample data added", "students", r.Len())
}

func sampleStudents() []models.Student {
	type mark struct {
		subject       string
		obtained, max float64
	}
	samples := []struct {
		roll, name, class string
		marks             []mark
	}{
		{"S_10A_001", "Alice Sharma", "10-A", []mark{{"Mathematics", 92, 100}, {"Science", 88, 100}, {"English", 79, 100}}},
		{"S_10A_002", "Bob Mensah", "10-A", []mark{{"Mathematics", 45, 100}, {"Science", 52, 100}}},
		{"S_10B_001", "Chen Li", "10-B", []mark{{"Mathematics", 71, 100}, {"History", 33, 50}}},
	}

	students := make([]models.Student, 0, len(samples))
	for _, sample := range samples {
		s, err := models.NewStudent(sample.roll, sample.name, sample.class)
		if err != nil {
			continue
		}
		for _, m := range sample.marks {
			_ = s.AddMark(m.subject, m.obtained, m.max)
		}
		students = append(students, *s)
	}
	return students
}
