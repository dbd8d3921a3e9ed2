package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/substrat-dev/ragd/internal/log"
)

func TestRetryEmbed_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	vec, err := retryEmbed(context.Background(), 3, time.Millisecond, log.NewNop(),
		func(context.Context) ([]float32, error) {
			calls++
			return []float32{1, 2}, nil
		})
	if err != nil {
		t.Fatalf("retryEmbed() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(vec) != 2 {
		t.Errorf("vec = %v", vec)
	}
}

func TestRetryEmbed_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	vec, err := retryEmbed(context.Background(), 3, time.Millisecond, log.NewNop(),
		func(context.Context) ([]float32, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("upstream hiccup")
			}
			return []float32{0.5}, nil
		})
	if err != nil {
		t.Fatalf("retryEmbed() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(vec) != 1 || vec[0] != 0.5 {
		t.Errorf("vec = %v", vec)
	}
}

func TestRetryEmbed_ExhaustsAttempts(t *testing.T) {
	upstream := errors.New("backend down")
	calls := 0
	_, err := retryEmbed(context.Background(), 3, time.Millisecond, log.NewNop(),
		func(context.Context) ([]float32, error) {
			calls++
			return nil, upstream
		})
	if !errors.Is(err, upstream) {
		t.Fatalf("retryEmbed() error = %v, want wrapped %v", err, upstream)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryEmbed_ContextCanceledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retryEmbed(ctx, 3, time.Minute, log.NewNop(),
		func(context.Context) ([]float32, error) {
			calls++
			cancel()
			return nil, errors.New("transient")
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("retryEmbed() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no further attempts after cancellation)", calls)
	}
}
