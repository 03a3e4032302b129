package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestPoolSubmitReturnsResultsInSubmissionOrder(t *testing.T) {
	handler := func(ctx context.Context, job SampleJob) SampleResult {
		// Reverse-order completion to exercise the ordering guarantee:
		// later-submitted jobs finish first.
		time.Sleep(time.Duration(5-job.Index) * time.Millisecond)
		return SampleResult{Index: job.Index, StartTime: job.StartTime, Transcript: fmt.Sprintf("t%d", job.Index)}
	}
	p := NewPool(4, handler)
	p.Start(context.Background())
	defer p.Stop()

	jobs := []SampleJob{
		{Index: 0, StartTime: 0},
		{Index: 1, StartTime: 300},
		{Index: 2, StartTime: 600},
		{Index: 3, StartTime: 900},
	}
	results := p.Submit(context.Background(), jobs)

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.Index != jobs[i].Index {
			t.Errorf("results[%d].Index = %d, want %d (order broken)", i, r.Index, jobs[i].Index)
		}
		if r.Transcript != fmt.Sprintf("t%d", jobs[i].Index) {
			t.Errorf("results[%d].Transcript = %q, want match for job %d", i, r.Transcript, jobs[i].Index)
		}
	}
}

func TestPoolRespectsFanoutBound(t *testing.T) {
	const fanout = 2
	var mu sync.Mutex
	current, maxSeen := 0, 0
	release := make(chan struct{})

	handler := func(ctx context.Context, job SampleJob) SampleResult {
		mu.Lock()
		current++
		if current > maxSeen {
			maxSeen = current
		}
		mu.Unlock()

		<-release

		mu.Lock()
		current--
		mu.Unlock()
		return SampleResult{Index: job.Index}
	}

	p := NewPool(fanout, handler)
	p.Start(context.Background())

	jobs := make([]SampleJob, 6)
	for i := range jobs {
		jobs[i] = SampleJob{Index: i}
	}

	done := make(chan []SampleResult)
	go func() { done <- p.Submit(context.Background(), jobs) }()

	time.Sleep(30 * time.Millisecond)
	close(release)
	<-done
	p.Stop()

	if maxSeen > fanout {
		t.Errorf("observed %d concurrent handlers, want <= %d", maxSeen, fanout)
	}
}

func TestPoolCancellationAbandonsRemainingWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := func(ctx context.Context, job SampleJob) SampleResult {
		if job.Index == 0 {
			cancel()
		}
		return SampleResult{Index: job.Index}
	}
	p := NewPool(1, handler)
	p.Start(context.Background())
	defer p.Stop()

	jobs := []SampleJob{{Index: 0}, {Index: 1}, {Index: 2}}
	results := p.Submit(ctx, jobs)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (slice pre-sized even on cancellation)", len(results))
	}
}
