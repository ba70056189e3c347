package models

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// CloseReason — почему закрылась позиция.
type CloseReason string

const (
	CloseStopLoss   CloseReason = "SL"
	CloseTakeProfit CloseReason = "TP"
)

// Position — открытая гипотетическая позиция. Владеет ей инстанс,
// до закрытия её мутирует только он (под своим мьютексом).
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	SL         float64   `json:"sl"`
	TP         float64   `json:"tp"`
	Size       float64   `json:"size"`
	RiskAmount float64   `json:"risk_amount"`

	// происхождение сигнала
	PivotPrice float64   `json:"pivot_price"`
	SweepTime  time.Time `json:"sweep_time"`
	ManipLow   float64   `json:"manip_low"`
	ManipHigh  float64   `json:"manip_high"`
}

// Trade — закрытая позиция, после закрытия неизменяема.
type Trade struct {
	Position
	ExitTime  time.Time   `json:"exit_time"`
	ExitPrice float64     `json:"exit_price"`
	Reason    CloseReason `json:"reason"`
	Profit    float64     `json:"profit"`
}

// Stats — агрегаты по закрытым сделкам инстанса.
type Stats struct {
	TotalTrades   int `json:"total_trades"`
	MonthlyTrades int `json:"monthly_trades"`
	TPCount       int `json:"tp_count"`
	SLCount       int `json:"sl_count"`
	LastMonth     int `json:"last_month"` // календарный месяц последней сделки
}

// Apply обновляет агрегаты по закрытой сделке; счётчик за месяц
// сбрасывается при смене календарного месяца.
func (s *Stats) Apply(tr Trade, now time.Time) {
	s.TotalTrades++
	month := int(now.Month())
	if month == s.LastMonth {
		s.MonthlyTrades++
	} else {
		s.MonthlyTrades = 1
		s.LastMonth = month
	}
	if tr.Profit > 0 {
		s.TPCount++
	} else {
		s.SLCount++
	}
}
