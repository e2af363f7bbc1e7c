package crawler

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/osumedals/crawler/internal/models"
	"github.com/osumedals/crawler/internal/osuapi"
)

// fetchUser pulls one user's data for all four modes concurrently and
// merges the responses. A 404 on the primary mode marks the user as
// restricted; any other mode failure fails the whole fetch.
func (c *Crawler) fetchUser(ctx context.Context, id uint32) (models.User, error) {
	var (
		responses [4]*osuapi.UserData
		errs      [4]error
	)

	// A plain group, not WithContext: every mode request is allowed to
	// finish so a 404 on the primary mode is seen even when another
	// mode errors first.
	var g errgroup.Group

	for _, mode := range models.AllModes {
		mode := mode
		g.Go(func() error {
			responses[mode], errs[mode] = c.userWithRetry(ctx, id, mode)
			return nil
		})
	}
	_ = g.Wait()

	if errors.Is(errs[models.ModeOsu], osuapi.ErrNotFound) {
		return models.Restricted{ID: id}, nil
	}

	for _, mode := range models.AllModes {
		if errs[mode] != nil {
			return nil, fmt.Errorf("fetch user %d (%s): %w", id, mode, errs[mode])
		}
	}

	return mergeModes(responses), nil
}

// userWithRetry retries exactly once, and only on the transient http/2
// stream reset the osu!api is known to emit under load.
func (c *Crawler) userWithRetry(ctx context.Context, id uint32, mode models.Mode) (*osuapi.UserData, error) {
	data, err := c.api.User(ctx, id, mode)
	if err == nil || !osuapi.IsRetryable(err) {
		return data, err
	}

	c.logger.Debugw("Retrying after stream reset", "user", id, "mode", mode.String())

	return c.api.User(ctx, id, mode)
}

// mergeModes folds the four per-mode responses into one user. Identity
// fields, medals, and badges come from the primary-mode response; the
// statistics block differs per mode.
func mergeModes(responses [4]*osuapi.UserData) *models.Available {
	primary := responses[models.ModeOsu]

	user := &models.Available{
		ID:          primary.ID,
		Name:        primary.Username,
		Country:     primary.CountryCode,
		Followers:   primary.FollowerCount,
		Subscribers: primary.MappingFollowerCount,
		RankedMaps:  primary.RankedMapsetCount,
		LovedMaps:   primary.LovedMapsetCount,
		Kudosu:      primary.Kudosu.Total,
		AvatarURL:   primary.AvatarURL,
	}

	user.Medals = make([]models.OwnedMedal, 0, len(primary.Medals))
	for _, m := range primary.Medals {
		user.Medals = append(user.Medals, models.OwnedMedal{
			MedalID:    m.MedalID,
			AchievedAt: m.AchievedAt,
		})
	}

	user.Badges = make([]models.BadgeObservation, 0, len(primary.Badges))
	for _, b := range primary.Badges {
		user.Badges = append(user.Badges, models.BadgeObservation{
			Description: b.Description,
			ImageURL:    b.ImageURL,
			AwardedAt:   b.AwardedAt,
		})
	}

	for _, mode := range models.AllModes {
		stats := responses[mode].Statistics
		if stats == nil {
			continue
		}

		user.Modes[mode] = models.ModeStats{
			Accuracy:  stats.Accuracy,
			Level:     stats.Level.Float(),
			Playcount: stats.Playcount,
			PP:        stats.PP,
		}
		if stats.GlobalRank != nil {
			user.Modes[mode].GlobalRank = *stats.GlobalRank
		}

		// Replay watches are counted per mode; the profile figure is
		// the sum over all four.
		user.ReplaysWatched += stats.ReplaysWatched
	}

	return user
}
