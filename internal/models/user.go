package models

import "time"

// User is the result of fetching one player from the osu!api. It is either
// Available (full multi-mode data) or Restricted (the account is banned or
// hidden and only the id is known). Every consumer must handle both cases
// explicitly via a type switch.
type User interface {
	UserID() uint32
}

// Available carries the merged data of the four per-mode API responses.
type Available struct {
	ID             uint32
	Name           string
	Country        string
	Modes          [4]ModeStats
	Medals         []OwnedMedal
	Badges         []BadgeObservation
	Followers      uint32
	Subscribers    uint32
	RankedMaps     uint16
	LovedMaps      uint16
	ReplaysWatched uint32
	Kudosu         int32
	AvatarURL      string
}

func (u *Available) UserID() uint32 { return u.ID }

// Restricted marks a user whose detailed data is unavailable. The user still
// counts towards rarity denominators and keeps a row in the ranking output.
type Restricted struct {
	ID uint32
}

func (r Restricted) UserID() uint32 { return r.ID }

// ModeStats holds the per-mode figures used by the ranking engine.
// GlobalRank of 0 means the user is unranked in that mode.
type ModeStats struct {
	Accuracy   float64
	Level      float64
	GlobalRank uint32
	Playcount  uint32
	PP         float64
}

// OwnedMedal is a reference to a medal the user has achieved.
type OwnedMedal struct {
	MedalID    uint16
	AchievedAt time.Time
}

// BadgeObservation is a raw profile badge as reported by the API, before
// the badge catalog resolves its identity from the image asset.
type BadgeObservation struct {
	Description string
	ImageURL    string
	AwardedAt   time.Time
}
