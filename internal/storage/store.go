package storage

import (
	"context"

	"sweep_bot/internal/models"
)

// InstanceState — полный снимок инстанса. Save перезаписывает его целиком
// после каждого открытия/закрытия; Load возвращает nil без ошибки, если
// состояния ещё нет.
type InstanceState struct {
	Balance   float64            `json:"balance"`
	Trades    []models.Trade     `json:"trades"`
	Stats     models.Stats       `json:"stats"`
	Positions []models.Position  `json:"positions"`
	SweepsPL  []models.Sweep     `json:"sweeps_pl"`
	SweepsPH  []models.Sweep     `json:"sweeps_ph"`
	UsedPivots []int64           `json:"used_pivots"`
	Window    *models.Window     `json:"window,omitempty"`
}

type Store interface {
	Load(ctx context.Context, key models.InstanceKey) (*InstanceState, error)
	Save(ctx context.Context, key models.InstanceKey, st *InstanceState) error
}
