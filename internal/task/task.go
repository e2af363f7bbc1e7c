// Package task defines the bitmask selecting which stages a crawl cycle runs.
package task

import (
	"fmt"
	"strings"
)

// Task is a set of named crawl capabilities.
type Task uint8

const (
	Medals Task = 1 << iota
	Leaderboard
	Badges
	Rarity
	Ranking
	ExtraBadges

	// Default covers the everyday refresh: medal catalog, badges, rarities
	// and the ranking, without the expensive full leaderboard scan.
	Default = Medals | Badges | Rarity | Ranking
	Full    = Medals | Leaderboard | Badges | Rarity | Ranking | ExtraBadges
)

func (t Task) Contains(other Task) bool { return t&other == other }

func (t Task) Medals() bool      { return t.Contains(Medals) }
func (t Task) Leaderboard() bool { return t.Contains(Leaderboard) }
func (t Task) Badges() bool      { return t.Contains(Badges) }
func (t Task) Rarity() bool      { return t.Contains(Rarity) }
func (t Task) Ranking() bool     { return t.Contains(Ranking) }
func (t Task) ExtraBadges() bool { return t.Contains(ExtraBadges) }

func (t Task) String() string {
	if t.Contains(Full) {
		return "Full"
	}

	var parts []string
	rest := t

	if rest.Contains(Default) {
		parts = append(parts, "Default")
		rest &^= Default
	}

	for _, flag := range []struct {
		bit  Task
		name string
	}{
		{Medals, "Medals"},
		{Leaderboard, "Leaderboard"},
		{Badges, "Badges"},
		{Rarity, "Rarity"},
		{Ranking, "Ranking"},
		{ExtraBadges, "ExtraBadges"},
	} {
		if rest.Contains(flag.bit) {
			parts = append(parts, flag.name)
			rest &^= flag.bit
		}
	}

	if len(parts) == 0 {
		return "None"
	}

	return strings.Join(parts, " | ")
}

// Parse builds a Task from a human-supplied string. Matching is
// case-insensitive and substring-based so "medals,rarity" and
// "Default" both work; "lb" is accepted for leaderboard.
func Parse(s string) (Task, error) {
	lower := strings.ToLower(s)

	var t Task

	if strings.Contains(lower, "default") {
		t |= Default
	}
	if strings.Contains(lower, "full") {
		t |= Full
	}
	if strings.Contains(lower, "medal") {
		t |= Medals
	}
	if strings.Contains(lower, "leaderboard") || strings.Contains(lower, "lb") {
		t |= Leaderboard
	}
	if strings.Contains(lower, "rarit") {
		t |= Rarity
	}
	if strings.Contains(lower, "ranking") {
		t |= Ranking
	}
	// Also hits for "extra badges".
	if strings.Contains(lower, "badge") {
		t |= Badges
	}
	if strings.Contains(lower, "extra") {
		t |= ExtraBadges
	}

	if t == 0 {
		return 0, fmt.Errorf(
			"unknown task %q; expected any of: default, full, medals, leaderboard, rarity, ranking, badges, extra",
			s,
		)
	}

	return t, nil
}
