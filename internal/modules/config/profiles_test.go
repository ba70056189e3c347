package config

import "testing"

func TestDefaultProfiles(t *testing.T) {
	cfg := &Config{ProfilesFile: "does_not_exist.yaml", Profiles: []string{"safe", "mid", "agresif"}}
	ps, err := NewProfiles(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 3 {
		t.Fatalf("profiles: %d", len(ps))
	}

	safe := ps["safe"]
	if safe.Name != "safe" || safe.Left != 15 || safe.Right != 15 || safe.ManipulationThreshold != 0.01 {
		t.Fatalf("safe: %+v", safe)
	}
	if ps["mid"].Right != 20 || ps["mid"].ManipulationThreshold != 0.005 {
		t.Fatalf("mid: %+v", ps["mid"])
	}
	ag := ps["agresif"]
	if ag.Right != 10 || ag.ManipulationThreshold != 0.001 || ag.MinCandlesSecond != 15 || ag.MaxCandlesSecond != 30 {
		t.Fatalf("agresif: %+v", ag)
	}
	if ag.RiskAmount() != 100 {
		t.Fatalf("risk: %v", ag.RiskAmount())
	}
}

func TestUnknownProfileRejected(t *testing.T) {
	cfg := &Config{ProfilesFile: "does_not_exist.yaml", Profiles: []string{"safe", "turbo"}}
	if _, err := NewProfiles(cfg); err == nil {
		t.Fatal("want error for unknown profile")
	}
}
