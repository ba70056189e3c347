package models

import "time"

// Bar — одна закрытая свеча фиксированного таймфрейма.
type Bar struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Symbol   string    `json:"symbol,omitempty"`
}

// Window — скользящее окно баров с абсолютной нумерацией.
// Seq(k) — сквозной номер бара за всё время работы инстанса, он не
// съезжает при вытеснении старых баров (в отличие от позиции в слайсе).
type Window struct {
	Bars    []Bar `json:"bars"`
	BaseSeq int64 `json:"base_seq"` // абсолютный номер Bars[0]
	Cap     int   `json:"cap"`
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 250
	}
	return &Window{Cap: capacity}
}

// Append добавляет бар, вытесняя самый старый при переполнении.
func (w *Window) Append(b Bar) {
	w.Bars = append(w.Bars, b)
	if len(w.Bars) > w.Cap {
		drop := len(w.Bars) - w.Cap
		w.Bars = w.Bars[drop:]
		w.BaseSeq += int64(drop)
	}
}

func (w *Window) Len() int { return len(w.Bars) }

// LastSeq — абсолютный номер последнего бара, -1 для пустого окна.
func (w *Window) LastSeq() int64 {
	if len(w.Bars) == 0 {
		return w.BaseSeq - 1
	}
	return w.BaseSeq + int64(len(w.Bars)) - 1
}

// At — бар по абсолютному номеру.
func (w *Window) At(seq int64) (Bar, bool) {
	i := seq - w.BaseSeq
	if i < 0 || i >= int64(len(w.Bars)) {
		return Bar{}, false
	}
	return w.Bars[i], true
}

func (w *Window) Last() (Bar, bool) {
	if len(w.Bars) == 0 {
		return Bar{}, false
	}
	return w.Bars[len(w.Bars)-1], true
}

// Contains — входит ли абсолютный номер в текущее окно.
func (w *Window) Contains(seq int64) bool {
	return seq >= w.BaseSeq && seq <= w.LastSeq()
}
