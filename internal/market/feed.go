package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"

	"sweep_bot/internal/models"
)

// Feed — рыночные данные: поток закрытых свечей, история для прогрева
// и текущая цена. Транзиентные ошибки LastPrice и обрывы стрима не
// фатальны, стейт движка при них не теряется.
type Feed interface {
	StreamBars(ctx context.Context, symbols []string, interval string) <-chan models.Bar
	HistoricalBars(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// BinanceFeed — USDT-M фьючерсы Binance: REST через go-binance,
// свечи через отдельный websocket (stream.go).
type BinanceFeed struct {
	rest  *futures.Client
	wsURL string
}

func NewBinanceFeed(apiKey, apiSecret string) *BinanceFeed {
	return &BinanceFeed{
		rest:  binance.NewFuturesClient(apiKey, apiSecret),
		wsURL: "wss://fstream.binance.com/stream",
	}
}

func (f *BinanceFeed) HistoricalBars(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error) {
	klines, err := f.rest.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "klines %s %s", symbol, interval)
	}

	bars := make([]models.Bar, 0, len(klines))
	for _, k := range klines {
		b, err := barFromStrings(symbol, k.OpenTime, k.Open, k.High, k.Low, k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "kline %s", symbol)
		}
		bars = append(bars, b)
	}
	// последняя свеча Binance может быть ещё не закрыта — выкидываем
	if len(bars) > 0 {
		bars = bars[:len(bars)-1]
	}
	return bars, nil
}

func (f *BinanceFeed) LastPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := f.rest.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "ticker %s", symbol)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("ticker %s: empty response", symbol)
	}
	px, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("ticker %s: bad price %q", symbol, prices[0].Price)
	}
	return px, nil
}

func barFromStrings(symbol string, openTimeMs int64, o, h, l, c string) (models.Bar, error) {
	open, err1 := strconv.ParseFloat(o, 64)
	high, err2 := strconv.ParseFloat(h, 64)
	low, err3 := strconv.ParseFloat(l, 64)
	closep, err4 := strconv.ParseFloat(c, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Bar{}, fmt.Errorf("bad ohlc [%s %s %s %s]", o, h, l, c)
	}
	return models.Bar{
		Symbol:   symbol,
		OpenTime: msToTime(openTimeMs),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closep,
	}, nil
}
