package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// FixtureIDFromEvent derives the synthetic fixture id from the upstream
// event identifier: first 10 hex chars of the sha256 digest read as a
// base-16 integer. Stable across runs, so downstream consumers can diff
// snapshots without a central id registry.
func FixtureIDFromEvent(eventID string) int64 {
	return hashID(eventID)
}

// FixtureIDFromTeams is the fallback when the upstream event id is
// missing. The key format (home__away__date) must not change: it is
// part of the id's stability contract.
func FixtureIDFromTeams(home, away, date string) int64 {
	return hashID(home + "__" + away + "__" + date)
}

func hashID(key string) int64 {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	// 10 hex chars = 40 bits, always fits int64.
	id, _ := strconv.ParseInt(digest[:10], 16, 64)
	return id
}
