package strategy

import (
	"fmt"
	"math"

	"sweep_bot/internal/models"
	"sweep_bot/internal/pivot"
)

// EventKind — события бар-пути, о которых стоит уведомить.
type EventKind string

const (
	EventSweepCreated   EventKind = "sweep"
	EventPivotProximity EventKind = "proximity"
)

type Event struct {
	Kind  EventKind
	Sweep models.Sweep      // для EventSweepCreated
	Pivot models.PivotPoint // для EventPivotProximity
}

// DedupKey — стабильный ключ события: повторный прогон того же окна
// даёт тот же ключ, и инстанс не шлёт уведомление второй раз.
func (e Event) DedupKey() string {
	switch e.Kind {
	case EventSweepCreated:
		return fmt.Sprintf("sweep:%s:%d", e.Sweep.Kind, e.Sweep.PivotSeq)
	case EventPivotProximity:
		return fmt.Sprintf("prox:%s:%d", e.Pivot.Kind, e.Pivot.Seq)
	}
	return string(e.Kind)
}

// Tracker — стейт-машина одного инстанса: неиспользованные пивоты,
// активные свипы и двухпутевая логика входа. Не потокобезопасен,
// владелец (инстанс) дёргает его строго последовательно по барам.
type Tracker struct {
	cfg       models.Profile
	proximity float64 // порог "цена рядом с пивотом", 0 — выключено

	sweepsPL []models.Sweep // свипы за pivot low (кандидаты в лонг)
	sweepsPH []models.Sweep // свипы за pivot high (кандидаты в шорт)
	used     map[int64]struct{}
}

func NewTracker(cfg models.Profile, proximity float64) *Tracker {
	return &Tracker{
		cfg:       cfg,
		proximity: proximity,
		used:      make(map[int64]struct{}),
	}
}

// PendingSweeps — количество активных свипов.
func (t *Tracker) PendingSweeps() int { return len(t.sweepsPL) + len(t.sweepsPH) }

// Snapshot отдаёт копию состояния для персиста.
func (t *Tracker) Snapshot() (pl, ph []models.Sweep, used []int64) {
	pl = append(pl, t.sweepsPL...)
	ph = append(ph, t.sweepsPH...)
	for seq := range t.used {
		used = append(used, seq)
	}
	return pl, ph, used
}

// Restore загружает сохранённое состояние (после рестарта).
func (t *Tracker) Restore(pl, ph []models.Sweep, used []int64) {
	t.sweepsPL = append(t.sweepsPL[:0], pl...)
	t.sweepsPH = append(t.sweepsPH[:0], ph...)
	t.used = make(map[int64]struct{}, len(used))
	for _, seq := range used {
		t.used[seq] = struct{}{}
	}
}

// DropStale выкидывает свипы и used-пивоты, чьи бары уже вне окна.
// Зовётся после рестора, когда окно могло уехать вперёд.
func (t *Tracker) DropStale(win *models.Window) {
	keep := func(in []models.Sweep) []models.Sweep {
		out := in[:0]
		for _, s := range in {
			if win.Contains(s.PivotSeq) && win.Contains(s.SweepSeq) {
				out = append(out, s)
			}
		}
		return out
	}
	t.sweepsPL = keep(t.sweepsPL)
	t.sweepsPH = keep(t.sweepsPH)
	for seq := range t.used {
		if !win.Contains(seq) {
			delete(t.used, seq)
		}
	}
}

// OnBar обрабатывает очередной закрытый бар (он уже добавлен в окно):
// пересчёт пивотов, создание свипов, ведение полосы манипуляции, протухание
// и проверка обоих путей входа. Возвращает сработавшие входы и события
// для уведомлений. Пустое/короткое окно — ничего не происходит.
func (t *Tracker) OnBar(win *models.Window) ([]Entry, []Event) {
	need := t.cfg.Left + t.cfg.Right + 1
	if win.Len() < need {
		return nil, nil
	}

	bars := win.Bars
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	cur := bars[len(bars)-1]
	curSeq := win.LastSeq()

	var events []Event

	ph := pivot.Highs(highs, t.cfg.Left, t.cfg.Right)
	pl := pivot.Lows(lows, t.cfg.Left, t.cfg.Right)

	// предупреждение о близости цены к ещё не использованному пивоту
	if t.proximity > 0 {
		for i, price := range ph {
			seq := win.BaseSeq + int64(i)
			if _, ok := t.used[seq]; ok {
				continue
			}
			if math.Abs(cur.Close-price)/price < t.proximity {
				events = append(events, Event{Kind: EventPivotProximity,
					Pivot: models.PivotPoint{Seq: seq, Price: price, Kind: models.PivotHigh}})
			}
		}
		for i, price := range pl {
			seq := win.BaseSeq + int64(i)
			if _, ok := t.used[seq]; ok {
				continue
			}
			if math.Abs(price-cur.Close)/price < t.proximity {
				events = append(events, Event{Kind: EventPivotProximity,
					Pivot: models.PivotPoint{Seq: seq, Price: price, Kind: models.PivotLow}})
			}
		}
	}

	// sell side sweep: прокол pivot high текущим хаем
	for i, price := range ph {
		seq := win.BaseSeq + int64(i)
		if seq >= curSeq {
			continue
		}
		if _, ok := t.used[seq]; ok {
			continue
		}
		if cur.High > price && (cur.High-price)/price >= t.cfg.ManipulationThreshold {
			s := models.Sweep{
				PivotSeq: seq, PivotPrice: price, Kind: models.PivotHigh,
				ExtremePrice: cur.High, SweepSeq: curSeq,
				ManipLow: cur.Low, ManipHigh: cur.High,
			}
			t.sweepsPH = append(t.sweepsPH, s)
			t.used[seq] = struct{}{}
			events = append(events, Event{Kind: EventSweepCreated, Sweep: s})
		}
	}

	// buy side sweep: прокол pivot low текущим лоем
	for i, price := range pl {
		seq := win.BaseSeq + int64(i)
		if seq >= curSeq {
			continue
		}
		if _, ok := t.used[seq]; ok {
			continue
		}
		if cur.Low < price && (price-cur.Low)/price >= t.cfg.ManipulationThreshold {
			s := models.Sweep{
				PivotSeq: seq, PivotPrice: price, Kind: models.PivotLow,
				ExtremePrice: cur.Low, SweepSeq: curSeq,
				ManipLow: cur.Low, ManipHigh: cur.High,
			}
			t.sweepsPL = append(t.sweepsPL, s)
			t.used[seq] = struct{}{}
			events = append(events, Event{Kind: EventSweepCreated, Sweep: s})
		}
	}

	entries := t.evalEntries(win)
	return entries, events
}
