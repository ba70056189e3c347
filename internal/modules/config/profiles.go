package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"sweep_bot/internal/models"
)

// Profiles — именованные наборы параметров стратегии.
type Profiles map[string]models.Profile

// defaultProfiles повторяют боевые пресеты: safe / mid / agresif
// отличаются радиусом подтверждения пивота и порогом манипуляции.
func defaultProfiles() Profiles {
	base := models.Profile{
		Left:                  15,
		Right:                 15,
		ManipulationThreshold: 0.01,
		MaxCandles:            15,
		ConsecutiveCandles:    4,
		MinCandlesSecond:      20,
		MaxCandlesSecond:      25,
		RiskRewardRatio:       1.5,
		InitialBalance:        10000,
		MaxRisk:               0.01,
	}

	mid := base
	mid.Right = 20
	mid.ManipulationThreshold = 0.005

	agresif := base
	agresif.Right = 10
	agresif.ManipulationThreshold = 0.001
	agresif.MinCandlesSecond = 15
	agresif.MaxCandlesSecond = 30

	return Profiles{"safe": base, "mid": mid, "agresif": agresif}
}

// NewProfiles читает configs/<ProfilesFile>; файл может переопределить
// любой пресет или добавить свой. Отсутствие файла — не ошибка,
// работаем на дефолтах.
func NewProfiles(cfg *Config) (Profiles, error) {
	out := defaultProfiles()

	v := viper.New()
	name := strings.TrimSuffix(cfg.ProfilesFile, ".yaml")
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return named(out, cfg.Profiles)
		}
		return nil, errors.Wrap(err, "read profiles file")
	}

	loaded := map[string]models.Profile{}
	if err := v.UnmarshalKey("profiles", &loaded); err != nil {
		return nil, errors.Wrap(err, "unmarshal profiles")
	}
	for name, p := range loaded {
		out[strings.ToLower(name)] = p
	}

	return named(out, cfg.Profiles)
}

// named проставляет имена, валидирует и оставляет только включённые
// в конфиге профили.
func named(all Profiles, enabled []string) (Profiles, error) {
	out := make(Profiles, len(enabled))
	for _, name := range enabled {
		name = strings.ToLower(name)
		p, ok := all[name]
		if !ok {
			return nil, errors.Errorf("unknown profile %q", name)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}
