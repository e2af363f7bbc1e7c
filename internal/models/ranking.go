package models

import "time"

// ModeRanking is the per-mode slice of a ranking record.
type ModeRanking struct {
	Accuracy   float64
	Level      float64
	PP         float64
	GlobalRank uint32
}

// RankingRecord is the flat per-user output row of the ranking engine.
// The Stdev* fields hold the outlier-dampened aggregates, not plain
// standard deviations; see logic.NewRankingRecord.
type RankingRecord struct {
	ID      uint32
	Name    string
	Country string

	Standard ModeRanking
	Taiko    ModeRanking
	Catch    ModeRanking
	Mania    ModeRanking

	TotalPP    float64
	StdevPP    float64
	StdevAcc   float64
	StdevLevel float64

	MedalCount    uint16
	RarestMedalID uint16
	RarestMedalAt time.Time

	BadgeCount     uint16
	RankedMaps     uint16
	LovedMaps      uint16
	Followers      uint32
	Subscribers    uint32
	ReplaysWatched uint32
	Kudosu         int32
	AvatarURL      string

	Restricted bool
}
