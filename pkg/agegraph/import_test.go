package agegraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/openbroker/resgraph/pkg/graphml"
)

func TestBatchNodes(t *testing.T) {
	nodes := make([]graphml.Node, 7)
	batches := batchNodes(nodes, 3)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 3 || len(batches[1]) != 3 || len(batches[2]) != 1 {
		t.Errorf("batch sizes wrong: %d %d %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batchNodes(nil, 3) != nil {
		t.Error("no nodes should yield no batches")
	}
	if got := batchNodes(nodes, 0); len(got) != 7 {
		t.Errorf("non-positive size should fall back to single-node batches, got %d", len(got))
	}
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cleanups := 0
	err := withRetry(3, 0, func(attempt int) error {
		attempts++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	}, func() error {
		cleanups++
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if cleanups != 2 {
		t.Errorf("expected cleanup after each failure, got %d", cleanups)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := withRetry(2, 0, func(int) error {
		attempts++
		return boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetry_CleanupFailureWins(t *testing.T) {
	err := withRetry(3, 0,
		func(int) error { return errors.New("transient") },
		func() error { return errors.New("cleanup failed") })
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "cleanup") {
		t.Errorf("cleanup failure should surface, got %q", err)
	}
}
