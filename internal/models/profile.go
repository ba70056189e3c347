package models

import "fmt"

// Profile — именованный набор параметров стратегии (safe / mid / agresif).
// Загружается один раз на старте и не меняется в течение жизни процесса.
type Profile struct {
	Name string `mapstructure:"-" json:"name"`

	Left                  int     `mapstructure:"left" json:"left"`
	Right                 int     `mapstructure:"right" json:"right"`
	ManipulationThreshold float64 `mapstructure:"manipulation_threshold" json:"manipulation_threshold"`
	MaxCandles            int     `mapstructure:"max_candles" json:"max_candles"`
	ConsecutiveCandles    int     `mapstructure:"consecutive_candles" json:"consecutive_candles"`
	MinCandlesSecond      int     `mapstructure:"min_candles_second" json:"min_candles_second"`
	MaxCandlesSecond      int     `mapstructure:"max_candles_second" json:"max_candles_second"`
	RiskRewardRatio       float64 `mapstructure:"risk_reward_ratio" json:"risk_reward_ratio"`
	InitialBalance        float64 `mapstructure:"initial_balance" json:"initial_balance"`
	MaxRisk               float64 `mapstructure:"max_risk" json:"max_risk"`
}

func (p Profile) Validate() error {
	if p.Left < 1 || p.Right < 1 {
		return fmt.Errorf("profile %s: left/right >= 1 required", p.Name)
	}
	if p.ManipulationThreshold <= 0 {
		return fmt.Errorf("profile %s: manipulation_threshold <= 0", p.Name)
	}
	if p.ConsecutiveCandles < 1 || p.MaxCandles < 1 {
		return fmt.Errorf("profile %s: candle counts >= 1 required", p.Name)
	}
	if p.MinCandlesSecond > p.MaxCandlesSecond {
		return fmt.Errorf("profile %s: min_candles_second > max_candles_second", p.Name)
	}
	if p.RiskRewardRatio <= 0 || p.InitialBalance <= 0 || p.MaxRisk <= 0 {
		return fmt.Errorf("profile %s: rr/balance/risk must be positive", p.Name)
	}
	return nil
}

// RiskAmount — фиксированный денежный риск на сделку. Намеренно считается
// от стартового баланса, а не от текущего.
func (p Profile) RiskAmount() float64 { return p.InitialBalance * p.MaxRisk }

// InstanceKey — (инструмент, профиль). Один ключ — один независимый инстанс.
type InstanceKey struct {
	Symbol  string
	Profile string
}

func (k InstanceKey) String() string { return k.Symbol + "/" + k.Profile }
