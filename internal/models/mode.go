package models

// Mode is one of the four osu! game modes. The numeric values match the
// osu!api route names returned by (Mode).String.
type Mode uint8

const (
	ModeOsu Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

// AllModes lists the modes in API order. Per-user fetches and leaderboard
// scans always cover all four.
var AllModes = [4]Mode{ModeOsu, ModeTaiko, ModeCatch, ModeMania}

func (m Mode) String() string {
	switch m {
	case ModeOsu:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "fruits"
	case ModeMania:
		return "mania"
	}
	return "unknown"
}
