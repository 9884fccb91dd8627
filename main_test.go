package main

import (
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-analytics-server-go/db"
	"student-analytics-server-go/roster"
)

func TestCheckAndSeedData(t *testing.T) {
	store := db.NewFileStore(filepath.Join(t.TempDir(), "student_data.json"), nil)
	r, err := roster.New(store, nil)
	require.NoError(t, err)

	checkAndSeedData(r, log.NewNopLogger())
	require.Equal(t, len(sampleStudents()), r.Len())
	for _, s := range r.ListStudents() {
		assert.NotEmpty(t, s.Marks)
	}

	// seeding twice leaves the roster alone
	require.NoError(t, r.RemoveStudent("S_10A_001"))
	checkAndSeedData(r, log.NewNopLogger())
	assert.Equal(t, len(sampleStudents())-1, r.Len())

	saved, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, saved, r.Len())
}

func TestServeReturnsListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1"}
	quit := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() { done <- serve(srv, quit, time.Second, log.NewNopLogger()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServeStopsOnSignal(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	quit := make(chan os.Signal, 1)
	quit <- syscall.SIGTERM

	done := make(chan error, 1)
	go func() { done <- serve(srv, quit, time.Second, log.NewNopLogger()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the signal")
	}
}
