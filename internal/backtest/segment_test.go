package backtest

import (
	"testing"
	"time"

	"pairs-backtest/internal/model"
)

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func flatSeries(n int, p1, p2 float64) model.PairSeries {
	s := model.PairSeries{Symbol1: "AAA", Symbol2: "BBB"}
	for i := 0; i < n; i++ {
		s.Dates = append(s.Dates, day(i+1))
		s.Leg1 = append(s.Leg1, p1)
		s.Leg2 = append(s.Leg2, p2)
	}
	return s
}

func TestSegmentConstantSignalIsOneEpisode(t *testing.T) {
	s := flatSeries(5, 10, 20)
	eps := Segment(s, make([]model.Signal, 5))
	if len(eps) != 1 {
		t.Fatalf("expected 1 episode, got %d", len(eps))
	}
	if !eps[0].StartTime.Equal(day(1)) || !eps[0].EndTime.Equal(day(5)) {
		t.Fatalf("unexpected span %s..%s", eps[0].StartTime, eps[0].EndTime)
	}
	if eps[0].ID != 1 || eps[0].Signal != model.Flat {
		t.Fatalf("unexpected episode %+v", eps[0])
	}
}

func TestSegmentIsContiguous(t *testing.T) {
	s := flatSeries(9, 10, 20)
	for i := range s.Leg1 {
		s.Leg1[i] = float64(100 + i)
	}
	sig := []model.Signal{0, 0, 0, 0, 0, -1, -1, -1, 0}
	eps := Segment(s, sig)
	if len(eps) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(eps))
	}
	wantSig := []model.Signal{model.Flat, model.ShortSpread, model.Flat}
	for i, ep := range eps {
		if ep.ID != i+1 {
			t.Fatalf("episode %d has id %d", i, ep.ID)
		}
		if ep.Signal != wantSig[i] {
			t.Fatalf("episode %d signal %v, want %v", i, ep.Signal, wantSig[i])
		}
		if i > 0 && !eps[i-1].EndTime.Equal(ep.StartTime) {
			t.Fatalf("gap between episode %d and %d", i, i+1)
		}
	}
	if !eps[0].StartTime.Equal(day(1)) || !eps[2].EndTime.Equal(day(9)) {
		t.Fatalf("episodes do not cover the series")
	}
	// short episode starts on row 5 and is closed at row 8
	if eps[1].Leg1StartPrice != 105 || eps[1].Leg1EndPrice != 108 {
		t.Fatalf("unexpected leg1 prices %+v", eps[1])
	}
}

func TestSegmentEmpty(t *testing.T) {
	if eps := Segment(model.PairSeries{}, nil); eps != nil {
		t.Fatalf("expected nil, got %v", eps)
	}
}
