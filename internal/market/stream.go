package market

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"sweep_bot/internal/models"
	"sweep_bot/pkg/logger"
)

const reconnectDelay = 3 * time.Second

// kline-фрейм combined-стрима fstream.binance.com
type klineFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Event  string `json:"e"`
		Symbol string `json:"s"`
		Kline  struct {
			OpenTime int64  `json:"t"`
			Open     string `json:"o"`
			High     string `json:"h"`
			Low      string `json:"l"`
			Close    string `json:"c"`
			Closed   bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

// StreamBars — один websocket на пачку символов. Отдаёт только закрытые
// свечи. При любом обрыве переподключается после паузы; канал закрывается
// только по ctx.
func (f *BinanceFeed) StreamBars(ctx context.Context, symbols []string, interval string) <-chan models.Bar {
	ch := make(chan models.Bar)

	go func() {
		defer close(ch)
		if len(symbols) == 0 {
			return
		}

		streams := make([]string, 0, len(symbols))
		for _, s := range symbols {
			streams = append(streams, strings.ToLower(s)+"@kline_"+interval)
		}
		url := f.wsURL + "?streams=" + strings.Join(streams, "/")
		dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			logger.Info("[WS] connect kline_%s, %d symbols", interval, len(symbols))
			conn, _, err := dialer.DialContext(ctx, url, nil)
			if err != nil {
				logger.Warn("[WS] dial error: %v", err)
				if !sleepCtx(ctx, reconnectDelay) {
					return
				}
				continue
			}

			// Binance шлёт ping сам, нам достаточно отвечать pong —
			// gorilla делает это дефолтным хендлером при ReadMessage.
			f.readLoop(ctx, conn, interval, ch)
			_ = conn.Close()

			if !sleepCtx(ctx, reconnectDelay) {
				return
			}
		}
	}()

	return ch
}

func (f *BinanceFeed) readLoop(ctx context.Context, conn *websocket.Conn, interval string, ch chan<- models.Bar) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("[WS] read error: %v", err)
			return
		}

		var frame klineFrame
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		k := frame.Data.Kline
		if frame.Data.Event != "kline" || !k.Closed {
			continue
		}

		bar, err := barFromStrings(frame.Data.Symbol, k.OpenTime, k.Open, k.High, k.Low, k.Close)
		if err != nil {
			logger.Warn("[WS] %s: %v", frame.Data.Symbol, err)
			continue
		}

		select {
		case ch <- bar:
		case <-ctx.Done():
			return
		}
	}
}

func msToTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
