package market

import (
	"context"
	"sync"
	"time"

	"sweep_bot/pkg/logger"
)

// PriceCache — фоновый рефрешер последней цены по каждому символу.
// Мониторы позиций и бар-путь читают кеш, а не дёргают REST каждый сам:
// это ограничивает исходящий рейт одним запросом на символ за интервал.
type PriceCache struct {
	feed     Feed
	interval time.Duration
	maxAge   time.Duration

	mu     sync.RWMutex
	prices map[string]pricePoint
}

type pricePoint struct {
	px float64
	at time.Time
}

func NewPriceCache(feed Feed, interval time.Duration) *PriceCache {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PriceCache{
		feed:     feed,
		interval: interval,
		maxAge:   10 * interval,
		prices:   make(map[string]pricePoint),
	}
}

// Run крутится до отмены ctx. Ошибка по одному символу не мешает
// остальным и не фатальна — значение просто устареет и Get вернёт false.
func (c *PriceCache) Run(ctx context.Context, symbols []string) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refresh(ctx, symbols)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx, symbols)
		}
	}
}

func (c *PriceCache) refresh(ctx context.Context, symbols []string) {
	for _, sym := range symbols {
		px, err := c.feed.LastPrice(ctx, sym)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("[PRICE] %s: %v", sym, err)
			continue
		}
		c.mu.Lock()
		c.prices[sym] = pricePoint{px: px, at: time.Now()}
		c.mu.Unlock()
	}
}

// Get — последняя известная цена; false, если цены нет или она протухла.
func (c *PriceCache) Get(symbol string) (float64, bool) {
	c.mu.RLock()
	p, ok := c.prices[symbol]
	c.mu.RUnlock()
	if !ok || time.Since(p.at) > c.maxAge {
		return 0, false
	}
	return p.px, true
}

// Set используется тестами и ручным прогревом.
func (c *PriceCache) Set(symbol string, px float64) {
	c.mu.Lock()
	c.prices[symbol] = pricePoint{px: px, at: time.Now()}
	c.mu.Unlock()
}
