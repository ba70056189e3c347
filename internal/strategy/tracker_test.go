package strategy

import (
	"math"
	"testing"
	"time"

	"sweep_bot/internal/models"
)

func testProfile() models.Profile {
	return models.Profile{
		Name: "safe", Left: 3, Right: 3,
		ManipulationThreshold: 0.01,
		MaxCandles:            15,
		ConsecutiveCandles:    4,
		MinCandlesSecond:      20,
		MaxCandlesSecond:      25,
		RiskRewardRatio:       1.5,
		InitialBalance:        10000,
		MaxRisk:               0.01,
	}
}

func bar(o, h, l, c float64) models.Bar {
	return models.Bar{OpenTime: time.Unix(0, 0), Open: o, High: h, Low: l, Close: c}
}

// префикс с pivot low на 100 (подтверждается тремя барами справа)
func pivotLowPrefix() []models.Bar {
	return []models.Bar{
		bar(106, 107, 105, 106),
		bar(105, 106, 104, 105),
		bar(104, 105, 103, 104),
		bar(101, 102, 100, 101), // pivot low = 100
		bar(102, 103, 101, 102),
		bar(103, 104, 102, 103),
		bar(104, 105, 103, 104),
	}
}

func feed(t *Tracker, w *models.Window, bars ...models.Bar) (entries []Entry, events []Event) {
	for _, b := range bars {
		w.Append(b)
		es, evs := t.OnBar(w)
		entries = append(entries, es...)
		events = append(events, evs...)
	}
	return entries, events
}

func sweepEvents(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == EventSweepCreated {
			out = append(out, e)
		}
	}
	return out
}

func TestSweepThenFastPathEntry(t *testing.T) {
	tr := NewTracker(testProfile(), 0)
	w := models.NewWindow(250)

	_, events := feed(tr, w, pivotLowPrefix()...)
	if len(sweepEvents(events)) != 0 {
		t.Fatalf("no sweep expected yet, got %v", events)
	}

	// прокол: low=98 против пивота 100 => ratio 0.02 >= 0.01
	_, events = feed(tr, w, bar(100, 101, 98, 99.5))
	sw := sweepEvents(events)
	if len(sw) != 1 {
		t.Fatalf("want 1 sweep, got %d", len(sw))
	}
	if sw[0].Sweep.PivotPrice != 100 || sw[0].Sweep.ManipLow != 98 {
		t.Fatalf("bad sweep: %+v", sw[0].Sweep)
	}
	if tr.PendingSweeps() != 1 {
		t.Fatalf("want 1 pending sweep, got %d", tr.PendingSweeps())
	}

	// три закрытия над пивотом — входа ещё нет (age < 4)
	entries, _ := feed(tr, w,
		bar(101, 102, 100.5, 101),
		bar(102, 103, 101, 102),
		bar(103, 104, 102, 103),
	)
	if len(entries) != 0 {
		t.Fatalf("entry fired too early: %+v", entries)
	}

	// четвёртое закрытие над пивотом: age=4, все 4 последних close > 100
	entries, _ = feed(tr, w, bar(104, 105, 103, 104))
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Side != models.SideLong {
		t.Fatalf("want long, got %s", e.Side)
	}
	if e.EntryPrice != 104 || e.SL != 98 {
		t.Fatalf("entry=%v sl=%v", e.EntryPrice, e.SL)
	}
	wantRisk := 10000 * 0.01
	if e.RiskAmount != wantRisk {
		t.Fatalf("risk=%v want %v", e.RiskAmount, wantRisk)
	}
	if math.Abs(e.Size-wantRisk/(104-98)) > 1e-12 {
		t.Fatalf("size=%v want %v", e.Size, wantRisk/6)
	}
	if math.Abs(e.TP-(104+6*1.5)) > 1e-12 {
		t.Fatalf("tp=%v", e.TP)
	}
	// свип израсходован
	if tr.PendingSweeps() != 0 {
		t.Fatalf("sweep must be consumed, pending=%d", tr.PendingSweeps())
	}
}

func TestPivotNeverSweptTwice(t *testing.T) {
	tr := NewTracker(testProfile(), 0)
	w := models.NewWindow(250)

	_, ev1 := feed(tr, w, pivotLowPrefix()...)
	_, ev2 := feed(tr, w,
		bar(100, 101, 98, 99.5), // первый прокол
		bar(99, 100, 97, 98),    // второй прокол того же пивота
	)
	total := len(sweepEvents(ev1)) + len(sweepEvents(ev2))
	if total != 1 {
		t.Fatalf("pivot swept %d times, want 1", total)
	}
	if tr.PendingSweeps() != 1 {
		t.Fatalf("want single pending sweep, got %d", tr.PendingSweeps())
	}
}

func TestSweepExpiresAfterMaxCandles(t *testing.T) {
	cfg := testProfile()
	cfg.MaxCandles = 2
	cfg.MinCandlesSecond = 50 // отложенный путь выключен
	tr := NewTracker(cfg, 0)
	w := models.NewWindow(250)

	feed(tr, w, pivotLowPrefix()...)
	feed(tr, w, bar(100, 101, 98, 99.5))
	if tr.PendingSweeps() != 1 {
		t.Fatalf("sweep not created")
	}

	// age 1,2 — ещё жив; age 3 > MaxCandles — протух
	feed(tr, w, bar(99, 100, 98.5, 99), bar(99, 100, 98.5, 99))
	if tr.PendingSweeps() != 1 {
		t.Fatalf("sweep dropped too early")
	}
	entries, _ := feed(tr, w, bar(99, 100, 98.5, 99))
	if tr.PendingSweeps() != 0 {
		t.Fatalf("sweep must expire, pending=%d", tr.PendingSweeps())
	}
	if len(entries) != 0 {
		t.Fatalf("expired sweep fired entry")
	}

	// и никакого входа после протухания, даже на развороте
	entries, _ = feed(tr, w,
		bar(101, 102, 100.5, 101),
		bar(102, 103, 101, 102),
		bar(103, 104, 102, 103),
		bar(104, 105, 103, 104),
	)
	if len(entries) != 0 {
		t.Fatalf("entry after expiry: %+v", entries)
	}
}

func TestDelayedPathEntry(t *testing.T) {
	cfg := testProfile()
	cfg.ConsecutiveCandles = 100 // быстрый путь выключен
	cfg.MinCandlesSecond = 2
	cfg.MaxCandlesSecond = 3
	tr := NewTracker(cfg, 0)
	w := models.NewWindow(250)

	feed(tr, w, pivotLowPrefix()...)
	feed(tr, w, bar(100, 101, 98, 99))   // свип, close под пивотом
	feed(tr, w, bar(99, 100, 98.5, 99))  // age=1, всё ещё под пивотом
	entries, _ := feed(tr, w, bar(100, 102, 99.5, 101)) // age=2: смещение 2 под пивотом, текущий close над
	if len(entries) != 1 {
		t.Fatalf("want delayed entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Side != models.SideLong || e.EntryPrice != 100 || e.SL != 98 {
		t.Fatalf("bad delayed entry: %+v", e)
	}
}

func TestShortSideSweepAndEntry(t *testing.T) {
	tr := NewTracker(testProfile(), 0)
	w := models.NewWindow(250)

	// зеркальный префикс: pivot high = 100
	feed(tr, w,
		bar(94, 95, 93, 94),
		bar(95, 96, 94, 95),
		bar(96, 97, 95, 96),
		bar(99, 100, 98, 99), // pivot high = 100
		bar(98, 99, 97, 98),
		bar(97, 98, 96, 97),
		bar(96, 97, 95, 96),
	)
	_, events := feed(tr, w, bar(100, 102, 99, 100.5)) // high=102 > 100*1.01
	if len(sweepEvents(events)) != 1 {
		t.Fatalf("short sweep not created: %v", events)
	}
	entries, _ := feed(tr, w,
		bar(99, 99.5, 98, 99),
		bar(98, 98.5, 97, 98),
		bar(97, 97.5, 96, 97),
		bar(96, 96.5, 95, 96),
	)
	if len(entries) != 1 {
		t.Fatalf("want short entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Side != models.SideShort {
		t.Fatalf("want short, got %s", e.Side)
	}
	if e.SL != 102 { // manip high свип-бара
		t.Fatalf("short sl=%v want 102", e.SL)
	}
	if e.TP >= e.EntryPrice {
		t.Fatalf("short tp=%v entry=%v", e.TP, e.EntryPrice)
	}
}

func TestIdempotentReprocessing(t *testing.T) {
	tr := NewTracker(testProfile(), 0)
	w := models.NewWindow(250)

	feed(tr, w, pivotLowPrefix()...)
	w.Append(bar(100, 101, 98, 99.5))

	_, ev1 := tr.OnBar(w)
	_, ev2 := tr.OnBar(w) // повторный прогон того же окна
	if len(sweepEvents(ev1)) != 1 || len(sweepEvents(ev2)) != 0 {
		t.Fatalf("duplicate sweep on reprocess: %v / %v", ev1, ev2)
	}
	if tr.PendingSweeps() != 1 {
		t.Fatalf("pending=%d", tr.PendingSweeps())
	}
}

func TestEmptyWindowNoOutput(t *testing.T) {
	tr := NewTracker(testProfile(), 0.001)
	w := models.NewWindow(250)
	entries, events := tr.OnBar(w)
	if entries != nil || events != nil {
		t.Fatalf("empty window must be silent: %v %v", entries, events)
	}
}

func TestProximityEvent(t *testing.T) {
	tr := NewTracker(testProfile(), 0.001)
	w := models.NewWindow(250)
	feed(tr, w, pivotLowPrefix()...)
	// close вплотную к пивоту 100 (без прокола)
	_, events := feed(tr, w, bar(100.2, 100.5, 100.05, 100.05))
	found := false
	for _, e := range events {
		if e.Kind == EventPivotProximity && e.Pivot.Kind == models.PivotLow {
			found = true
		}
	}
	if !found {
		t.Fatalf("proximity event expected, got %v", events)
	}
}

func TestSnapshotRestore(t *testing.T) {
	tr := NewTracker(testProfile(), 0)
	w := models.NewWindow(250)
	feed(tr, w, pivotLowPrefix()...)
	feed(tr, w, bar(100, 101, 98, 99.5))

	pl, ph, used := tr.Snapshot()
	if len(pl) != 1 || len(ph) != 0 || len(used) != 1 {
		t.Fatalf("snapshot: pl=%d ph=%d used=%d", len(pl), len(ph), len(used))
	}

	tr2 := NewTracker(testProfile(), 0)
	tr2.Restore(pl, ph, used)
	// восстановленный трекер добивает быстрый путь так же, как исходный
	entries, _ := feed(tr2, w,
		bar(101, 102, 100.5, 101),
		bar(102, 103, 101, 102),
		bar(103, 104, 102, 103),
		bar(104, 105, 103, 104),
	)
	if len(entries) != 1 {
		t.Fatalf("restored tracker must fire entry, got %d", len(entries))
	}
}
