package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robert-malhotra/glad-analysis/internal/alerts"
)

// stubExecutor answers bounds queries from fixed rows and counts calls.
type stubExecutor struct {
	first, last []alerts.Row
	err         error
	calls       int
}

func (s *stubExecutor) Count(ctx context.Context, ds *alerts.Dataset, sql string, f SpatialFilter) (int, error) {
	return 0, errors.New("not implemented")
}

func (s *stubExecutor) Rows(ctx context.Context, ds *alerts.Dataset, sql string, f SpatialFilter) ([]alerts.Row, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if strings.Contains(sql, "ASC") {
		return s.first, nil
	}
	return s.last, nil
}

func TestIndexBounds_MinMax(t *testing.T) {
	exec := &stubExecutor{
		first: []alerts.Row{{Year: 2015, Day: 1}},
		last:  []alerts.Row{{Year: 2020, Day: 120}},
	}

	got, err := NewIndexBounds(exec).MinMax(context.Background(), gladDataset)
	if err != nil {
		t.Fatalf("MinMax() error = %v", err)
	}
	want := alerts.Bounds{MinYear: 2015, MinDay: 1, MaxYear: 2020, MaxDay: 120}
	if got != want {
		t.Errorf("MinMax() = %+v, want %+v", got, want)
	}
}

func TestIndexBounds_EmptyIndex(t *testing.T) {
	_, err := NewIndexBounds(&stubExecutor{}).MinMax(context.Background(), gladDataset)
	if !errors.Is(err, alerts.ErrOutOfRange) {
		t.Errorf("MinMax() error = %v, want ErrOutOfRange", err)
	}
}

func TestCachedBounds(t *testing.T) {
	exec := &stubExecutor{
		first: []alerts.Row{{Year: 2015, Day: 1}},
		last:  []alerts.Row{{Year: 2020, Day: 120}},
	}
	cached := NewCachedBounds(NewIndexBounds(exec), 4, time.Hour, nil)

	for i := 0; i < 3; i++ {
		if _, err := cached.MinMax(context.Background(), gladDataset); err != nil {
			t.Fatalf("MinMax() error = %v", err)
		}
	}
	if exec.calls != 2 {
		t.Errorf("executor calls = %d, want 2", exec.calls)
	}
}

func TestCachedBounds_ErrorsNotCached(t *testing.T) {
	exec := &stubExecutor{err: alerts.ErrUpstreamQuery}
	cached := NewCachedBounds(NewIndexBounds(exec), 4, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, err := cached.MinMax(context.Background(), gladDataset); !errors.Is(err, alerts.ErrUpstreamQuery) {
			t.Fatalf("MinMax() error = %v, want ErrUpstreamQuery", err)
		}
	}
	if exec.calls != 2 {
		t.Errorf("executor calls = %d, want 2", exec.calls)
	}
}
