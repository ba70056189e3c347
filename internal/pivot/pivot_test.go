package pivot

import "testing"

func TestHighs_SingleExtremum(t *testing.T) {
	// строго растёт до вершины и строго падает — ровно один pivot high
	series := []float64{1, 2, 3, 10, 4, 3, 2}
	got := Highs(series, 3, 3)
	if len(got) != 1 {
		t.Fatalf("want 1 pivot, got %v", got)
	}
	if v, ok := got[3]; !ok || v != 10 {
		t.Fatalf("want pivot at 3 price 10, got %v", got)
	}
}

func TestLows_SingleExtremum(t *testing.T) {
	series := []float64{9, 7, 5, 1, 4, 6, 8}
	got := Lows(series, 3, 3)
	if len(got) != 1 {
		t.Fatalf("want 1 pivot, got %v", got)
	}
	if v, ok := got[3]; !ok || v != 1 {
		t.Fatalf("want pivot at 3 price 1, got %v", got)
	}
}

func TestHighs_TieDoesNotQualify(t *testing.T) {
	// повтор вершины слева — равенство не проходит
	series := []float64{1, 10, 3, 10, 4, 3, 2}
	if got := Highs(series, 2, 2); len(got) != 0 {
		t.Fatalf("tie must not qualify, got %v", got)
	}
}

func TestHighs_EdgesExcluded(t *testing.T) {
	// максимум на краю не подтверждается: не хватает right-баров
	series := []float64{1, 2, 3, 4, 5}
	if got := Highs(series, 2, 2); len(got) != 0 {
		t.Fatalf("edge extremum must be excluded, got %v", got)
	}
}

func TestHighs_ShortSeries(t *testing.T) {
	if got := Highs([]float64{1, 2}, 3, 3); len(got) != 0 {
		t.Fatalf("short series must yield nothing, got %v", got)
	}
	if got := Highs(nil, 3, 3); len(got) != 0 {
		t.Fatalf("nil series must yield nothing, got %v", got)
	}
}

func TestHighs_MultiplePivots(t *testing.T) {
	series := []float64{1, 5, 2, 1, 6, 2, 1, 4, 0}
	got := Highs(series, 1, 1)
	for _, idx := range []int{1, 4, 7} {
		if _, ok := got[idx]; !ok {
			t.Fatalf("want pivot at %d, got %v", idx, got)
		}
	}
	if len(got) != 3 {
		t.Fatalf("want 3 pivots, got %v", got)
	}
}
