package osuapi

import "time"

// UserData is the wire shape of one /users/{id}/{mode} response, reduced
// to the fields the crawler consumes. Identity fields are only read from
// the primary-mode response; Statistics differ per mode.
type UserData struct {
	ID                   uint32       `json:"id"`
	Username             string       `json:"username"`
	CountryCode          string       `json:"country_code"`
	AvatarURL            string       `json:"avatar_url"`
	FollowerCount        uint32       `json:"follower_count"`
	MappingFollowerCount uint32       `json:"mapping_follower_count"`
	RankedMapsetCount    uint16       `json:"ranked_and_approved_beatmapset_count"`
	LovedMapsetCount     uint16       `json:"loved_beatmapset_count"`
	Kudosu               Kudosu       `json:"kudosu"`
	Statistics           *Statistics  `json:"statistics"`
	Medals               []MedalOwned `json:"user_achievements"`
	Badges               []BadgeAward `json:"badges"`
}

type Kudosu struct {
	Total int32 `json:"total"`
}

type Statistics struct {
	Accuracy       float64 `json:"hit_accuracy"`
	Level          Level   `json:"level"`
	GlobalRank     *uint32 `json:"global_rank"`
	Playcount      uint32  `json:"play_count"`
	PP             float64 `json:"pp"`
	ReplaysWatched uint32  `json:"replays_watched_by_others"`
}

type Level struct {
	Current  uint32 `json:"current"`
	Progress uint32 `json:"progress"`
}

// Float renders the level as e.g. 101.73 for current 101, progress 73.
func (l Level) Float() float64 {
	return float64(l.Current) + float64(l.Progress)/100
}

type MedalOwned struct {
	AchievedAt time.Time `json:"achieved_at"`
	MedalID    uint16    `json:"achievement_id"`
}

type BadgeAward struct {
	AwardedAt   time.Time `json:"awarded_at"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	URL         string    `json:"url"`
}
