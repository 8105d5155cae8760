package models

import "testing"

func TestFixtureIDFromEventDeterministic(t *testing.T) {
	a := FixtureIDFromEvent("evt-12345")
	b := FixtureIDFromEvent("evt-12345")
	if a != b {
		t.Errorf("id not deterministic: %d vs %d", a, b)
	}
	if a < 0 {
		t.Errorf("id must be non-negative, got %d", a)
	}
	if FixtureIDFromEvent("evt-12346") == a {
		t.Error("distinct event ids mapped to the same fixture id")
	}
}

func TestFixtureIDFits40Bits(t *testing.T) {
	for _, key := range []string{"", "x", "evt-12345", "Flamengo__Palmeiras__2026-01-01T00:00:00Z"} {
		id := FixtureIDFromEvent(key)
		if id < 0 || id >= 1<<40 {
			t.Errorf("id for %q out of 40-bit range: %d", key, id)
		}
	}
}

func TestFixtureIDFromTeams(t *testing.T) {
	date := "2026-01-01T00:00:00Z"
	a := FixtureIDFromTeams("Flamengo", "Palmeiras", date)
	if a != FixtureIDFromTeams("Flamengo", "Palmeiras", date) {
		t.Error("team-based id not deterministic")
	}
	if a == FixtureIDFromTeams("Palmeiras", "Flamengo", date) {
		t.Error("swapping home and away must change the id")
	}
	if a == FixtureIDFromTeams("Flamengo", "Palmeiras", "2026-01-02T00:00:00Z") {
		t.Error("changing the date must change the id")
	}
}
