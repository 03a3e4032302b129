package sync

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sort"

	"subsync/internal/align"
	"subsync/internal/errs"
	"subsync/internal/extract"
	"subsync/internal/offset"
	"subsync/internal/sampler"
	"subsync/internal/samplecache"
	"subsync/internal/subtitle"
	"subsync/internal/transcribe"
)

// Config holds everything the Synchronizer needs that is not itself a
// collaborator object (spec §9: the logger and selected adapter are
// explicit constructor arguments, not process-wide singletons).
type Config struct {
	MediaPath           string
	SubtitlePath        string
	Samples             int     // 0 => default 16
	SearchWindow        int     // minutes, 0 => default 20
	SimilarityThreshold float64 // 0 => default 0.65
	MinChars            int     // 0 => default subtitle.MinChars
	Fanout              int     // 0 => default 4
	Seed                int64
	DurationFallbackSec float64 // used only if the subtitle file's own span is zero
	DryRun              bool
}

func (c Config) samples() int {
	if c.Samples > 0 {
		return c.Samples
	}
	return 16
}

func (c Config) searchWindow() int {
	if c.SearchWindow > 0 {
		return c.SearchWindow
	}
	return 20
}

func (c Config) similarityThreshold() float64 {
	if c.SimilarityThreshold > 0 {
		return c.SimilarityThreshold
	}
	return 0.65
}

func (c Config) minChars() int {
	if c.MinChars > 0 {
		return c.MinChars
	}
	return subtitle.MinChars
}

// Report is the human-readable and machine-readable summary of a run
// (spec §6 "Log/report").
type Report struct {
	RunID            string
	SamplesAttempted int
	SamplesMatched   int
	Matches          []align.Match
	Mode             string
	Variance         float64
	MultiPassFired   bool
	RefinementKept   bool
	FinalThreshold   float64
	Points           []offset.Point
	DryRun           bool
}

// Synchronizer orchestrates components A-H (spec §4.I): it owns the
// sample list, match list, and offset point list across the pipeline.
type Synchronizer struct {
	cfg         Config
	extractor   extract.Extractor
	transcriber transcribe.Transcriber
	cache       *samplecache.Cache
	mediaHash   string
	logger      *log.Logger
}

// New builds a Synchronizer. cache and logger may be nil (cache
// disabled, logger defaulting to log.Default()).
func New(cfg Config, extractor extract.Extractor, transcriber transcribe.Transcriber, cache *samplecache.Cache, mediaHash string, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{cfg: cfg, extractor: extractor, transcriber: transcriber, cache: cache, mediaHash: mediaHash, logger: logger}
}

// Run executes the full pipeline: parse, sample, extract+transcribe,
// align, estimate, and rewrite in memory. It returns every subtitle
// entry with Δ(t) applied and a report, or an error from the taxonomy
// in spec §7. Run writes no file, DryRun or not; DryRun is only
// recorded in the report.
func (s *Synchronizer) Run(ctx context.Context) (*Report, []subtitle.Entry, error) {
	subs, err := subtitle.Parse(s.cfg.SubtitlePath)
	if err != nil {
		return nil, nil, err
	}

	duration := subs.Duration()
	if duration <= 0 {
		duration = s.cfg.DurationFallbackSec
	}
	if duration <= 0 {
		return nil, nil, &errs.UsageError{Msg: "could not determine media duration; pass -duration-fallback-sec"}
	}

	n := s.cfg.samples()
	times := sampler.Pick(duration, n, s.cfg.Seed)
	s.logger.Printf("picked %d sample times (requested %d) over a %.0fs duration", len(times), n, duration)

	index := subs.IndexByMinute()

	results := s.runSamples(ctx, times)
	matches := s.realign(results, index, s.cfg.similarityThreshold())

	ctrl := NewController(s.cfg.similarityThreshold(), len(times))
	multiPassFired := false
	refinementKept := true
	var est offset.Result

	for {
		points := pointsFromMatches(matches)
		est = offset.Estimate(points)
		action := ctrl.Step(Metrics{MatchCount: len(matches), Variance: est.Variance})
		s.logger.Printf("controller: matches=%d/%d variance=%.2f threshold=%.2f action=%s",
			len(matches), len(times), est.Variance, ctrl.Threshold(), action)

		switch action {
		case ActionAdaptThreshold:
			matches = s.realign(results, index, ctrl.Threshold())

		case ActionRefine:
			multiPassFired = true
			preVariance := est.Variance
			refinedMatches := s.refine(ctx, times, index, ctrl)
			merged := mergeMatches(matches, refinedMatches)
			postEst := offset.Estimate(pointsFromMatches(merged))
			if ShouldKeepRefinement(preVariance, postEst.Variance) {
				matches = merged
				refinementKept = true
			} else {
				refinementKept = false
				s.logger.Printf("refinement rolled back: variance %.2f -> %.2f insufficient improvement", preVariance, postEst.Variance)
			}

		case ActionFail:
			return nil, nil, &errs.InsufficientMatches{Attempted: len(times)}

		case ActionEmit:
			sort.Slice(matches, func(i, j int) bool { return matches[i].SampleStartTime < matches[j].SampleStartTime })
			est = offset.Estimate(pointsFromMatches(matches))
			rewritten := subtitle.Rewrite(subs.Entries(), est.Delta)

			report := &Report{
				SamplesAttempted: len(times),
				SamplesMatched:   len(matches),
				Matches:          matches,
				Mode:             est.Mode.String(),
				Variance:         est.Variance,
				MultiPassFired:   multiPassFired,
				RefinementKept:   refinementKept,
				FinalThreshold:   ctrl.Threshold(),
				Points:           est.Points,
				DryRun:           s.cfg.DryRun,
			}
			if s.cache != nil {
				report.RunID = s.cache.RunID
			}
			return report, rewritten, nil
		}
	}
}

// runSamples extracts and transcribes every sample time concurrently,
// up to the configured fan-out (spec §5).
func (s *Synchronizer) runSamples(ctx context.Context, times []float64) []SampleResult {
	jobs := make([]SampleJob, len(times))
	for i, t := range times {
		jobs[i] = SampleJob{Index: i, StartTime: t}
	}

	handler := func(ctx context.Context, job SampleJob) SampleResult {
		if s.cache != nil && s.mediaHash != "" {
			if text, ok, err := s.cache.Lookup(ctx, s.mediaHash, job.StartTime); err == nil && ok {
				return SampleResult{Index: job.Index, StartTime: job.StartTime, Transcript: text}
			}
		}

		pcm, err := extract.ExtractWithRetry(ctx, s.extractor, s.cfg.MediaPath, job.StartTime, sampler.SegmentDuration, times, pickAlternateTime)
		if err != nil {
			return SampleResult{Index: job.Index, StartTime: job.StartTime, Err: err}
		}

		text, err := transcribe.WithRetry(ctx, s.transcriber, pcm)
		if err != nil {
			return SampleResult{Index: job.Index, StartTime: job.StartTime, Err: err}
		}

		if s.cache != nil && s.mediaHash != "" {
			_ = s.cache.Store(ctx, s.mediaHash, job.StartTime, sampler.SegmentDuration, text)
		}
		return SampleResult{Index: job.Index, StartTime: job.StartTime, Transcript: text}
	}

	pool := NewPool(s.cfg.Fanout, handler)
	pool.Start(ctx)
	defer pool.Stop()
	return pool.Submit(ctx, jobs)
}

func pickAlternateTime(candidates []float64) float64 {
	if len(candidates) == 0 {
		return 0
	}
	return candidates[rand.Intn(len(candidates))]
}

// realign rebuilds the match list from already-transcribed samples at
// a given threshold, without re-running extraction or transcription.
func (s *Synchronizer) realign(results []SampleResult, index map[int]string, threshold float64) []align.Match {
	var samples []align.Sample
	for _, r := range results {
		if r.Err != nil || r.Transcript == "" {
			if r.Err != nil {
				s.logger.Printf("sample at t=%.0fs dropped: %v", r.StartTime, r.Err)
			}
			continue
		}
		samples = append(samples, align.Sample{Index: r.Index, StartTime: r.StartTime, Transcript: r.Transcript})
	}

	matches := align.Align(samples, index, s.cfg.searchWindow(), threshold, s.cfg.minChars())
	sort.Slice(matches, func(i, j int) bool { return matches[i].SampleStartTime < matches[j].SampleStartTime })
	return matches
}

func pointsFromMatches(matches []align.Match) []offset.Point {
	points := make([]offset.Point, 0, len(matches))
	for _, m := range matches {
		points = append(points, offset.Point{
			Time:   m.SampleStartTime,
			Delta:  60*float64(m.Minute) - m.SampleStartTime,
			Weight: m.Similarity,
		})
	}
	return points
}

// refine runs a second full sampling+alignment pass with a larger
// sample count and a new seed (spec §4.I multi-pass refinement).
func (s *Synchronizer) refine(ctx context.Context, firstPassTimes []float64, index map[int]string, ctrl *Controller) []align.Match {
	n := ctrl.RefineSampleCount()
	newSeed := s.cfg.Seed + 1
	duration := maxFloat(firstPassTimes) + sampler.SegmentDuration
	times := sampler.Pick(duration, n, newSeed)

	results := s.runSamples(ctx, times)
	return s.realign(results, index, ctrl.Threshold())
}

func maxFloat(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// mergeMatches deduplicates two passes' matches by sample time within
// 30s, keeping the higher-similarity match (spec §4.I).
func mergeMatches(a, b []align.Match) []align.Match {
	merged := append([]align.Match(nil), a...)
	for _, m := range b {
		replaced := false
		for i, existing := range merged {
			if math.Abs(existing.SampleStartTime-m.SampleStartTime) <= 30 {
				if m.Similarity > existing.Similarity {
					merged[i] = m
				}
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, m)
		}
	}
	return merged
}
