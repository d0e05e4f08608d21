package pivot

import (
	"math"
	"testing"
)

func TestDetectShortSeriesIsEmpty(t *testing.T) {
	lv := Detect([]float64{1, 2}, 10)
	if len(lv.Supports) != 0 || len(lv.Resistances) != 0 {
		t.Fatalf("expected empty levels, got %+v", lv)
	}
	lv = Detect(nil, 10)
	if len(lv.Supports) != 0 || len(lv.Resistances) != 0 {
		t.Fatalf("expected empty levels for nil input")
	}
}

func TestDetectIdempotent(t *testing.T) {
	series := []float64{10, 9, 11, 8, 12, 7, 13, 9.5, 10.5, 8.2, 11.8, 9.1, 12.4}
	a := Detect(series, 5)
	b := Detect(series, 5)
	if len(a.Supports) != len(b.Supports) || len(a.Resistances) != len(b.Resistances) {
		t.Fatalf("detection is not idempotent: %+v vs %+v", a, b)
	}
	for i := range a.Supports {
		if a.Supports[i] != b.Supports[i] {
			t.Fatalf("support %d differs: %v vs %v", i, a.Supports[i], b.Supports[i])
		}
	}
	for i := range a.Resistances {
		if a.Resistances[i] != b.Resistances[i] {
			t.Fatalf("resistance %d differs", i)
		}
	}
}

func TestMergeNearDuplicates(t *testing.T) {
	// 100.00 and 100.30 are within 0.5% of each other and must collapse to
	// their mean, not stay as two levels.
	merged := mergeLevels([]float64{100.00, 100.30}, 100)
	if len(merged) != 1 {
		t.Fatalf("expected one merged level, got %v", merged)
	}
	if math.Abs(merged[0]-100.15) > 1e-9 {
		t.Fatalf("merged level = %v, want 100.15", merged[0])
	}
}

func TestMergeKeepsDistantLevels(t *testing.T) {
	merged := mergeLevels([]float64{100, 110, 121}, 100)
	if len(merged) != 3 {
		t.Fatalf("distant levels must not merge: %v", merged)
	}
}

func TestMergeZeroLevelUsesMeanTolerance(t *testing.T) {
	// Last accepted level is zero, so the tolerance comes from the series
	// mean (50 * 0.5% = 0.25): 0.2 merges, 0.3 would not.
	merged := mergeLevels([]float64{0, 0.2}, 50)
	if len(merged) != 1 {
		t.Fatalf("expected merge against mean tolerance, got %v", merged)
	}
}

func TestDetectOrdering(t *testing.T) {
	series := []float64{50, 40, 60, 30, 70, 20, 80, 35, 65, 45, 55, 25, 75}
	lv := Detect(series, 3)
	for i := 1; i < len(lv.Supports); i++ {
		if lv.Supports[i] < lv.Supports[i-1] {
			t.Fatalf("supports not ascending: %v", lv.Supports)
		}
	}
	for i := 1; i < len(lv.Resistances); i++ {
		if lv.Resistances[i] > lv.Resistances[i-1] {
			t.Fatalf("resistances not descending: %v", lv.Resistances)
		}
	}
}

func TestDetectWindowForcedOdd(t *testing.T) {
	// Window 10 becomes 11; a 10-point series is then too short.
	series := make([]float64, 10)
	for i := range series {
		series[i] = float64(i)
	}
	lv := Detect(series, 10)
	if len(lv.Supports) != 0 || len(lv.Resistances) != 0 {
		t.Fatalf("10-point series with window 10 (forced to 11) must be empty, got %+v", lv)
	}
}
