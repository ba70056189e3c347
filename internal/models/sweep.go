package models

// PivotKind — тип локального экстремума.
type PivotKind string

const (
	PivotHigh PivotKind = "high"
	PivotLow  PivotKind = "low"
)

// PivotPoint — подтверждённый экстремум внутри окна.
// Seq — абсолютный номер бара (см. Window), Price — high или low этого бара.
type PivotPoint struct {
	Seq   int64
	Price float64
	Kind  PivotKind
}

// Sweep — снятие ликвидности за пивотом: цена проколола уровень минимум
// на манипуляционный порог и мы ждём возврата. Пока свип активен, полоса
// манипуляции [ManipLow, ManipHigh] расширяется новыми экстремумами.
type Sweep struct {
	PivotSeq     int64     `json:"pivot_seq"`
	PivotPrice   float64   `json:"pivot_price"`
	Kind         PivotKind `json:"kind"`
	ExtremePrice float64   `json:"extreme_price"` // экстремум бара, создавшего свип
	SweepSeq     int64     `json:"sweep_seq"`
	ManipLow     float64   `json:"manip_low"`
	ManipHigh    float64   `json:"manip_high"`
}

// Age — сколько баров прошло с момента свипа.
func (s *Sweep) Age(curSeq int64) int64 { return curSeq - s.SweepSeq }
