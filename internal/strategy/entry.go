package strategy

import (
	"time"

	"sweep_bot/internal/models"
)

// Entry — сработавший вход. Леджер превращает его в позицию.
type Entry struct {
	Side       models.Side
	EntryTime  time.Time
	EntryPrice float64
	SL         float64
	TP         float64
	Size       float64
	RiskAmount float64

	PivotPrice float64
	SweepTime  time.Time
	ManipLow   float64
	ManipHigh  float64
}

// evalEntries проходит по активным свипам: протухание по возрасту, ведение
// полосы манипуляции, затем два независимых пути подтверждения. Свип,
// давший вход, расходуется и второй раз не стреляет.
func (t *Tracker) evalEntries(win *models.Window) []Entry {
	var entries []Entry
	cur, _ := win.Last()
	curSeq := win.LastSeq()

	t.sweepsPL = t.evalSide(win, t.sweepsPL, cur, curSeq, models.SideLong, &entries)
	t.sweepsPH = t.evalSide(win, t.sweepsPH, cur, curSeq, models.SideShort, &entries)
	return entries
}

func (t *Tracker) evalSide(
	win *models.Window,
	sweeps []models.Sweep,
	cur models.Bar,
	curSeq int64,
	side models.Side,
	entries *[]Entry,
) []models.Sweep {
	kept := sweeps[:0]
	for _, s := range sweeps {
		age := s.Age(curSeq)
		if age > int64(t.cfg.MaxCandles) {
			continue // протух без подтверждения
		}

		// пока цена на "неправильной" стороне пивота — расширяем полосу
		if (side == models.SideLong && cur.Close <= s.PivotPrice) ||
			(side == models.SideShort && cur.Close >= s.PivotPrice) {
			if cur.Low < s.ManipLow {
				s.ManipLow = cur.Low
			}
			if cur.High > s.ManipHigh {
				s.ManipHigh = cur.High
			}
		}

		if e, ok := t.tryEnter(win, s, cur, curSeq, age, side); ok {
			*entries = append(*entries, e)
			continue // свип израсходован
		}
		kept = append(kept, s)
	}
	return kept
}

// tryEnter проверяет оба пути. Быстрый: последние ConsecutiveCandles
// закрытий на стороне разворота. Отложенный: закрытия на смещениях
// [MinCandlesSecond, min(age, MaxCandlesSecond)] все на стороне свипа,
// а текущее закрытие только что пересекло пивот обратно.
func (t *Tracker) tryEnter(
	win *models.Window,
	s models.Sweep,
	cur models.Bar,
	curSeq, age int64,
	side models.Side,
) (Entry, bool) {
	reversal := func(c float64) bool {
		if side == models.SideLong {
			return c > s.PivotPrice
		}
		return c < s.PivotPrice
	}
	sweepSide := func(c float64) bool {
		if side == models.SideLong {
			return c < s.PivotPrice
		}
		return c > s.PivotPrice
	}

	if age >= int64(t.cfg.ConsecutiveCandles) {
		ok := true
		for j := int64(0); j < int64(t.cfg.ConsecutiveCandles); j++ {
			b, in := win.At(curSeq - j)
			if !in || !reversal(b.Close) {
				ok = false
				break
			}
		}
		if ok {
			return t.buildEntry(win, s, cur, side)
		}
	}

	if age >= int64(t.cfg.MinCandlesSecond) {
		maxOff := age
		if m := int64(t.cfg.MaxCandlesSecond); m < maxOff {
			maxOff = m
		}
		ok := true
		for j := int64(t.cfg.MinCandlesSecond); j <= maxOff; j++ {
			b, in := win.At(curSeq - j)
			if !in || !sweepSide(b.Close) {
				ok = false
				break
			}
		}
		if ok && reversal(cur.Close) {
			return t.buildEntry(win, s, cur, side)
		}
	}

	return Entry{}, false
}

// buildEntry — сайзинг от фиксированного риска. Вход — открытие текущего
// бара, стоп — неблагоприятный край полосы манипуляции. Нулевая или
// отрицательная дистанция до стопа — сигнал молча бракуется.
func (t *Tracker) buildEntry(win *models.Window, s models.Sweep, cur models.Bar, side models.Side) (Entry, bool) {
	entryPrice := cur.Open

	var sl, stopDist float64
	if side == models.SideLong {
		sl = s.ManipLow
		stopDist = entryPrice - sl
	} else {
		sl = s.ManipHigh
		stopDist = sl - entryPrice
	}
	if stopDist <= 0 {
		return Entry{}, false
	}

	risk := t.cfg.RiskAmount()
	size := risk / stopDist

	var tp float64
	if side == models.SideLong {
		tp = entryPrice + stopDist*t.cfg.RiskRewardRatio
	} else {
		tp = entryPrice - stopDist*t.cfg.RiskRewardRatio
	}

	var sweepAt time.Time
	if b, in := win.At(s.SweepSeq); in {
		sweepAt = b.OpenTime
	}

	return Entry{
		Side:       side,
		EntryTime:  cur.OpenTime,
		EntryPrice: entryPrice,
		SL:         sl,
		TP:         tp,
		Size:       size,
		RiskAmount: risk,
		PivotPrice: s.PivotPrice,
		SweepTime:  sweepAt,
		ManipLow:   s.ManipLow,
		ManipHigh:  s.ManipHigh,
	}, true
}
