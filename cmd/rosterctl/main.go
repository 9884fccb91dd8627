package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"student-analytics-server-go/analytics"
	"student-analytics-server-go/config"
	"student-analytics-server-go/db"
	"student-analytics-server-go/logging"
	"student-analytics-server-go/roster"
)

var logger log.Logger

func main() {
	configFile := flag.String("config", "", "Optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(".env", *configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var closer io.Closer
	logger, closer, err = logging.New("rosterctl", cfg.LogDir, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// the CLI prints results on stdout, so only warnings and errors are logged
	if !cfg.Debug {
		logger = level.NewFilter(logger, level.AllowWarn())
	}

	store, err := db.Open(cfg, logger)
	errAndDie(err)

	r, err := roster.New(store, logger)
	errAndDie(err)

	engine := analytics.NewEngine(cfg.GradeScale())
	engine.TopN = cfg.Analytics.Top
	engine.AttentionThreshold = cfg.Analytics.Threshold

	// start CLI
	cli := commandLine{
		roster: r,
		engine: engine,
		out:    os.Stdout,
		logger: logger,
	}
	err = cli.run(append([]string{os.Args[0]}, flag.Args()...))
	store.Close()
	closer.Close()
	if err != nil {
		if err != errHelp {
			_ = level.Error(logger).Log("msg", "command failed", "err", err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		_ = level.Error(logger).Log("msg", "startup failed", "err", err)
		os.Exit(1)
	}
}
