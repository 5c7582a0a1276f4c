package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/potluck/internal/paging"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 60 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, time.Minute},
		{"negative failures", -1, time.Minute},
		{"one failure", 1, 2 * time.Minute},
		{"two failures", 2, 4 * time.Minute},
		{"three failures capped", 3, 5 * time.Minute}, // Would be 8m, capped to 5m
		{"many failures capped", 40, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff || got <= 0 {
			t.Errorf("calculateBackoff(%d, %v) = %v, outside (0, %v]", failures, baseInterval, got, maxBackoff)
		}
	}
}

type scriptedRefresher struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedRefresher) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func TestStartRefresher_RefreshesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &scriptedRefresher{errs: []error{paging.ErrBusy, nil}}
	results := make(chan error, 16)
	StartRefresher(ctx, target, time.Millisecond, func(err error) { results <- err })

	for i, want := range []error{paging.ErrBusy, nil, nil} {
		select {
		case got := <-results:
			if !errors.Is(got, want) && got != want {
				t.Fatalf("attempt %d = %v, want %v", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d never happened", i)
		}
	}
	cancel()
}

func TestStartRefresher_StopsWhenListClosed(t *testing.T) {
	target := &scriptedRefresher{errs: []error{paging.ErrClosed}}
	StartRefresher(context.Background(), target, time.Millisecond, nil)

	time.Sleep(50 * time.Millisecond)
	target.mu.Lock()
	defer target.mu.Unlock()
	if target.calls != 1 {
		t.Fatalf("calls = %d, want 1 after ErrClosed", target.calls)
	}
}
