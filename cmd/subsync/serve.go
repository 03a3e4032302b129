package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"subsync/internal/errs"
	"subsync/internal/reportserver"
	"subsync/internal/sync"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("subsync serve", flag.ExitOnError)
	var (
		reportPath = fs.String("report", "", "Path to a JSON report written by a prior run")
		entries    = fs.Int("entries", 0, "Number of rewritten subtitle entries, for display only")
		port       = fs.String("port", "8080", "Port to listen on")
	)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s serve -report <file.json> [options]\n\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if *reportPath == "" {
		fs.Usage()
		return fail(&errs.UsageError{Msg: "-report is required"})
	}

	data, err := os.ReadFile(*reportPath)
	if err != nil {
		return fail(fmt.Errorf("read report: %w", err))
	}
	var report sync.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return fail(fmt.Errorf("parse report: %w", err))
	}

	srv := reportserver.New(&report, *entries)
	fmt.Fprintf(os.Stderr, "serving report from %s on :%s\n", *reportPath, *port)
	if err := srv.ListenAndServe(context.Background(), *port); err != nil {
		return fail(err)
	}
	return 0
}
