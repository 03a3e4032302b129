package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"subsync/internal/backup"
	"subsync/internal/errs"
	"subsync/internal/extract"
	"subsync/internal/samplecache"
	"subsync/internal/subtitle"
	"subsync/internal/sync"
	"subsync/internal/transcribe"
)

func runSync(args []string) int {
	fs := flag.NewFlagSet("subsync", flag.ExitOnError)
	var (
		media               = fs.String("media", "", "Path to the video/audio file, or a YouTube URL")
		subPath             = fs.String("sub", "", "Path to the .srt subtitle file to correct")
		api                 = fs.String("api", "whisper", "Transcription adapter: whisper, google, local, or mock")
		modelDir            = fs.String("model", "models/whisper-base", "Model directory for -api local")
		samples             = fs.Int("samples", 0, "Number of samples to pick (0 = default 16)")
		searchWindow        = fs.Int("search-window", 0, "Search window in minutes (0 = default 20)")
		similarityThreshold = fs.Float64("similarity-threshold", 0, "Minimum similarity to accept a match (0 = default 0.65)")
		minChars            = fs.Int("min-chars", 0, "Minimum subtitle bucket length to be eligible (0 = default)")
		fanout              = fs.Int("fanout", 0, "Concurrent sample workers (0 = default 4)")
		durationFallbackSec = fs.Float64("duration-fallback-sec", 0, "Media duration to assume if the subtitle track's own span is zero")
		cacheDir            = fs.String("cache-dir", "", "Directory for the sample cache database (disabled if empty)")
		reportPath          = fs.String("report", "", "Write the JSON run report to this path")
		dryRun              = fs.Bool("dry-run", false, "Report the computed offsets without rewriting or backing up the subtitle file")
		debug               = fs.Bool("debug", false, "Prefix log lines with [debug] (the same lines are logged either way)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -media <file> -sub <file.srt> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -media movie.mp4 -sub movie.srt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -media movie.mp4 -sub movie.srt -api local -model models/whisper-base\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s serve -report run.json\n", os.Args[0])
	}
	_ = fs.Parse(args)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if *debug {
		logger.SetPrefix("[debug] ")
	}

	if *media == "" || *subPath == "" {
		fs.Usage()
		return fail(&errs.UsageError{Msg: "-media and -sub are required"})
	}

	ctx := context.Background()

	resolvedMedia, err := extract.ResolveMediaPath(ctx, *media, os.TempDir())
	if err != nil {
		return fail(err)
	}

	transcriber, closeTranscriber, err := buildTranscriber(*api, *modelDir)
	if err != nil {
		return fail(err)
	}
	if closeTranscriber != nil {
		defer closeTranscriber()
	}

	var cache *samplecache.Cache
	var mediaHash string
	if *cacheDir != "" {
		cache, err = samplecache.Open(*cacheDir + "/samplecache.db")
		if err != nil {
			return fail(fmt.Errorf("open sample cache: %w", err))
		}
		defer cache.Close()

		mediaHash, err = samplecache.MediaHash(resolvedMedia)
		if err != nil {
			logger.Printf("warning: could not hash media for caching: %v", err)
			mediaHash = ""
		}
	}

	cfg := sync.Config{
		MediaPath:           resolvedMedia,
		SubtitlePath:        *subPath,
		Samples:             *samples,
		SearchWindow:        *searchWindow,
		SimilarityThreshold: *similarityThreshold,
		MinChars:            *minChars,
		Fanout:              *fanout,
		DurationFallbackSec: *durationFallbackSec,
		DryRun:              *dryRun,
	}

	s := sync.New(cfg, extract.FFmpegExtractor{}, transcriber, cache, mediaHash, logger)
	report, entries, err := s.Run(ctx)
	if err != nil {
		return fail(err)
	}

	logger.Printf("done: %d/%d samples matched, mode=%s variance=%.3f",
		report.SamplesMatched, report.SamplesAttempted, report.Mode, report.Variance)

	if *reportPath != "" {
		if err := writeReport(*reportPath, report); err != nil {
			return fail(fmt.Errorf("write report: %w", err))
		}
	}

	if cfg.DryRun {
		logger.Printf("dry run: not writing corrected subtitle file")
		return 0
	}

	if _, err := backup.Save(*subPath, time.Now()); err != nil {
		return fail(fmt.Errorf("backup original subtitle: %w", err))
	}

	out, err := os.Create(*subPath)
	if err != nil {
		return fail(fmt.Errorf("open %s for writing: %w", *subPath, err))
	}
	defer out.Close()
	if err := subtitle.WriteSRT(out, entries); err != nil {
		return fail(fmt.Errorf("write corrected subtitle: %w", err))
	}

	return 0
}

func buildTranscriber(api, modelDir string) (transcribe.Transcriber, func(), error) {
	switch api {
	case "whisper":
		t, err := transcribe.NewWhisperCloud(os.Getenv("OPENAI_API_KEY"))
		return t, nil, err
	case "google":
		t, err := transcribe.NewGoogleCloud(os.Getenv("GOOGLE_PLACES_API_KEY"))
		return t, nil, err
	case "local":
		t, err := transcribe.NewLocal(transcribe.DefaultLocalConfig(modelDir))
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	case "mock":
		return &transcribe.Mock{}, nil, nil
	default:
		return nil, nil, &errs.UsageError{Msg: fmt.Sprintf("unknown -api %q: want whisper, google, local, or mock", api)}
	}
}

func writeReport(path string, report *sync.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
