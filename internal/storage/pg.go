package storage

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"sweep_bot/internal/models"
	"sweep_bot/pkg/db"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS instance_state (
	symbol      TEXT NOT NULL,
	profile     TEXT NOT NULL,
	state       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (symbol, profile)
)`

// PgStore — состояние инстансов в постгресе, одна строка на ключ,
// снапшот целиком в jsonb.
type PgStore struct {
	tx *db.PgTxManager
}

func NewPgStore(ctx context.Context, tx *db.PgTxManager) (*PgStore, error) {
	s := &PgStore{tx: tx}
	err := tx.RunMaster(ctx, func(ctxTx context.Context, t pgx.Tx) error {
		_, err := t.Exec(ctxTx, createStateTable)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "migrate instance_state")
	}
	return s, nil
}

func (s *PgStore) Load(ctx context.Context, key models.InstanceKey) (*InstanceState, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "store.load")
	defer span.Finish()

	var raw []byte
	err := s.tx.RunMaster(ctx, func(ctxTx context.Context, t pgx.Tx) error {
		row := t.QueryRow(ctxTx,
			`SELECT state FROM instance_state WHERE symbol=$1 AND profile=$2`,
			key.Symbol, key.Profile)
		return row.Scan(&raw)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "load state %s", key)
	}
	var st InstanceState
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, errors.Wrapf(err, "decode state %s", key)
	}
	return &st, nil
}

func (s *PgStore) Save(ctx context.Context, key models.InstanceKey, st *InstanceState) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "store.save")
	defer span.Finish()

	raw, err := sonic.Marshal(st)
	if err != nil {
		return errors.Wrapf(err, "encode state %s", key)
	}
	err = s.tx.RunMaster(ctx, func(ctxTx context.Context, t pgx.Tx) error {
		_, err := t.Exec(ctxTx, `
			INSERT INTO instance_state (symbol, profile, state, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (symbol, profile)
			DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
			key.Symbol, key.Profile, raw)
		return err
	})
	return errors.Wrapf(err, "save state %s", key)
}
