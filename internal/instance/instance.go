package instance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sweep_bot/internal/models"
	"sweep_bot/internal/storage"
	"sweep_bot/internal/strategy"
	"sweep_bot/pkg/logger"
)

// Notifier — то, что инстансу нужно от исходящих уведомлений.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

const proximityResendTTL = 30 * time.Minute

// Instance — один независимый (символ, профиль): окно баров, трекер
// свипов, открытые позиции, баланс, статистика и дедуп уведомлений.
// Его состояние мутируют два пути — бар-путь и мониторы позиций —
// поэтому всё под одним мьютексом.
type Instance struct {
	Key models.InstanceKey
	cfg models.Profile

	mu        sync.Mutex
	win       *models.Window
	tracker   *strategy.Tracker
	positions map[string]*models.Position
	trades    []models.Trade
	balance   float64
	stats     models.Stats
	lastSend  map[string]time.Time

	store storage.Store
	n     Notifier
	now   func() time.Time
}

func New(key models.InstanceKey, cfg models.Profile, windowCap int, proximity float64, store storage.Store, n Notifier) *Instance {
	return &Instance{
		Key:       key,
		cfg:       cfg,
		win:       models.NewWindow(windowCap),
		tracker:   strategy.NewTracker(cfg, proximity),
		positions: make(map[string]*models.Position),
		balance:   cfg.InitialBalance,
		lastSend:  make(map[string]time.Time),
		store:     store,
		n:         n,
		now:       time.Now,
	}
}

// Restore поднимает сохранённое состояние целиком: баланс, историю,
// статистику, открытые позиции, активные свипы и само окно. Отсутствие
// состояния — не ошибка, стартуем с чистого листа.
func (i *Instance) Restore(ctx context.Context) error {
	st, err := i.store.Load(ctx, i.Key)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.balance = st.Balance
	i.trades = append(i.trades[:0], st.Trades...)
	i.stats = st.Stats
	for _, p := range st.Positions {
		p := p
		i.positions[p.ID] = &p
	}
	if st.Window != nil && len(st.Window.Bars) > 0 {
		i.win = st.Window
		if i.win.Cap <= 0 {
			i.win.Cap = 250
		}
	}
	i.tracker.Restore(st.SweepsPL, st.SweepsPH, st.UsedPivots)
	i.tracker.DropStale(i.win)

	logger.Info("[%s] state restored: balance=%.2f trades=%d open=%d sweeps=%d",
		i.Key, i.balance, len(i.trades), len(i.positions), i.tracker.PendingSweeps())
	return nil
}

// LastBarTime — время открытия последнего бара окна (для стыковки
// бэкфилла с живым потоком).
func (i *Instance) LastBarTime() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	if b, ok := i.win.Last(); ok {
		return b.OpenTime
	}
	return time.Time{}
}

// OnBar — бар-путь: окно, трекер, входы. live=false — прогрев историей:
// пивоты и свипы ведутся как обычно, но входы не исполняются (сигнал по
// устаревшей цене бракуется и логируется). Возвращает открытые позиции,
// на каждую из них снаружи стартует монитор.
func (i *Instance) OnBar(ctx context.Context, bar models.Bar, live bool) []models.Position {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.win.Append(bar)
	entries, events := i.tracker.OnBar(i.win)

	for _, ev := range events {
		if !live {
			continue
		}
		i.notifyEventLocked(ev)
	}

	if len(entries) == 0 {
		return nil
	}
	if !live {
		logger.Info("[%s] %d warmup signal(s) skipped", i.Key, len(entries))
		return nil
	}

	var opened []models.Position
	for _, e := range entries {
		p := models.Position{
			ID:         uuid.NewString(),
			Symbol:     i.Key.Symbol,
			Side:       e.Side,
			EntryTime:  e.EntryTime,
			EntryPrice: e.EntryPrice,
			SL:         e.SL,
			TP:         e.TP,
			Size:       e.Size,
			RiskAmount: e.RiskAmount,
			PivotPrice: e.PivotPrice,
			SweepTime:  e.SweepTime,
			ManipLow:   e.ManipLow,
			ManipHigh:  e.ManipHigh,
		}
		i.positions[p.ID] = &p
		opened = append(opened, p)

		if i.canSendLocked(openDedupKey(p), 0) {
			i.n.Sendf("✅ [%s] Открыта %s @ %.4f | SL=%.4f TP=%.4f size=%.4f risk=%.2f",
				i.Key, p.Side, p.EntryPrice, p.SL, p.TP, p.Size, p.RiskAmount)
		}
		logger.Info("[%s] OPEN %s entry=%.4f sl=%.4f tp=%.4f size=%.4f",
			i.Key, p.Side, p.EntryPrice, p.SL, p.TP, p.Size)
	}

	i.persistLocked(ctx)
	return opened
}

// Close закрывает позицию с фиксированной выплатой: -risk по стопу,
// +risk*RR по тейку. Exit-цена пишется только для отчётности. Если
// позиции уже нет (закрыл другой путь) — false и тишина.
func (i *Instance) Close(ctx context.Context, posID string, exitPrice float64, reason models.CloseReason) (models.Trade, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	p, ok := i.positions[posID]
	if !ok {
		return models.Trade{}, false
	}
	delete(i.positions, posID)

	profit := -p.RiskAmount
	if reason == models.CloseTakeProfit {
		profit = p.RiskAmount * i.cfg.RiskRewardRatio
	}

	tr := models.Trade{
		Position:  *p,
		ExitTime:  i.now(),
		ExitPrice: exitPrice,
		Reason:    reason,
		Profit:    profit,
	}
	i.trades = append(i.trades, tr)
	i.balance += profit
	i.stats.Apply(tr, tr.ExitTime)

	i.n.Sendf("🏁 [%s] Закрыта %s (%s): entry=%.4f exit=%.4f profit=%+.2f | баланс %.2f",
		i.Key, p.Side, reason, p.EntryPrice, exitPrice, profit, i.balance)
	logger.Info("[%s] CLOSE %s reason=%s profit=%+.2f balance=%.2f",
		i.Key, p.Side, reason, profit, i.balance)

	i.persistLocked(ctx)
	return tr, true
}

// OpenPositions — копии открытых позиций (для рестарта мониторов).
func (i *Instance) OpenPositions() []models.Position {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]models.Position, 0, len(i.positions))
	for _, p := range i.positions {
		out = append(out, *p)
	}
	return out
}

func (i *Instance) notifyEventLocked(ev strategy.Event) {
	switch ev.Kind {
	case strategy.EventSweepCreated:
		if !i.canSendLocked(ev.DedupKey(), 0) {
			return
		}
		if ev.Sweep.Kind == models.PivotHigh {
			i.n.Sendf("🔻 [%s] Sell side sweep: pivot high %.4f, хай свипа %.4f",
				i.Key, ev.Sweep.PivotPrice, ev.Sweep.ExtremePrice)
		} else {
			i.n.Sendf("🔺 [%s] Buy side sweep: pivot low %.4f, лоу свипа %.4f",
				i.Key, ev.Sweep.PivotPrice, ev.Sweep.ExtremePrice)
		}
	case strategy.EventPivotProximity:
		if !i.canSendLocked(ev.DedupKey(), proximityResendTTL) {
			return
		}
		i.n.Sendf("⚠️ [%s] Цена вплотную к pivot %s (%.4f)",
			i.Key, ev.Pivot.Kind, ev.Pivot.Price)
	}
}

// canSendLocked — дедуп уведомлений: ttl=0 значит "один раз навсегда".
func (i *Instance) canSendLocked(key string, ttl time.Duration) bool {
	at, seen := i.lastSend[key]
	if seen && (ttl == 0 || i.now().Sub(at) < ttl) {
		return false
	}
	i.lastSend[key] = i.now()
	return true
}

func openDedupKey(p models.Position) string {
	return "open:" + string(p.Side) + ":" + p.EntryTime.UTC().Format(time.RFC3339)
}

func (i *Instance) persistLocked(ctx context.Context) {
	pl, ph, used := i.tracker.Snapshot()
	st := &storage.InstanceState{
		Balance:    i.balance,
		Trades:     append([]models.Trade(nil), i.trades...),
		Stats:      i.stats,
		SweepsPL:   pl,
		SweepsPH:   ph,
		UsedPivots: used,
		Window:     &models.Window{Bars: append([]models.Bar(nil), i.win.Bars...), BaseSeq: i.win.BaseSeq, Cap: i.win.Cap},
	}
	for _, p := range i.positions {
		st.Positions = append(st.Positions, *p)
	}

	// персист не фатален: движок продолжает работать в памяти
	if err := i.store.Save(ctx, i.Key, st); err != nil {
		logger.Warn("[%s] persist failed: %v", i.Key, err)
	}
}
