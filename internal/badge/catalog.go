// Package badge accumulates profile badge observations across users and
// resolves badge identity. Two badges can share the same description text
// yet be different awards, so identity is anchored on the image asset:
// the display name is derived from the image path, and owners are grouped
// under (description, name).
package badge

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
)

// Owner is one badge-ownership edge.
type Owner struct {
	UserID    uint32
	AwardedAt time.Time
}

// Catalog is the in-memory dedup/merge structure. names maps a derived
// display name to its canonical image URL; descriptions groups owner sets
// by description, then by name. Every name in descriptions has a names
// entry.
type Catalog struct {
	names        map[string]string
	descriptions map[string]map[string]map[uint32]time.Time
	logger       *zap.SugaredLogger
}

func NewCatalog(logger *zap.SugaredLogger) *Catalog {
	return &Catalog{
		names:        make(map[string]string),
		descriptions: make(map[string]map[string]map[uint32]time.Time),
		logger:       logger,
	}
}

// Push records one raw observation for the given user. Malformed image
// URLs are logged and dropped; bad upstream data must not kill the cycle.
// Pushing the same observation twice is a no-op.
func (c *Catalog) Push(userID uint32, obs models.BadgeObservation) {
	imageURL := stripQuery(obs.ImageURL)

	name, ok := deriveName(imageURL)
	if !ok {
		c.logger.Warnw("Dropping badge with unparseable image URL",
			"user", userID,
			"imageUrl", obs.ImageURL,
		)
		return
	}

	c.insert(obs.Description, name, imageURL, userID, obs.AwardedAt)
}

// Insert adds one already-resolved ownership edge. The store layer uses it
// to rebuild a catalog from persisted rows.
func (c *Catalog) Insert(description, name, imageURL string, userID uint32, awardedAt time.Time) {
	c.insert(description, name, imageURL, userID, awardedAt)
}

func (c *Catalog) insert(description, name, imageURL string, userID uint32, awardedAt time.Time) {
	if _, ok := c.names[name]; !ok {
		c.names[name] = imageURL
	}

	names, ok := c.descriptions[description]
	if !ok {
		names = make(map[string]map[uint32]time.Time)
		c.descriptions[description] = names
	}

	owners, ok := names[name]
	if !ok {
		owners = make(map[uint32]time.Time)
		names[name] = owners
	}

	// Set semantics: the first observation for a user wins.
	if _, ok := owners[userID]; !ok {
		owners[userID] = awardedAt
	}
}

// Merge unions other into c. Existing name entries win since they are
// immutable identity mappings; owner sets are unioned per (description,
// name), so merge order does not change the final sets.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}

	for name, imageURL := range other.names {
		if _, ok := c.names[name]; !ok {
			c.names[name] = imageURL
		}
	}

	for description, names := range other.descriptions {
		for name, owners := range names {
			for userID, awardedAt := range owners {
				dst := c.descriptions[description]
				if dst == nil {
					dst = make(map[string]map[uint32]time.Time)
					c.descriptions[description] = dst
				}
				set := dst[name]
				if set == nil {
					set = make(map[uint32]time.Time)
					dst[name] = set
				}
				if _, ok := set[userID]; !ok {
					set[userID] = awardedAt
				}
			}
		}
	}
}

// Len counts ownership edges: distinct (description, name, owner) triples.
func (c *Catalog) Len() int {
	total := 0
	for _, names := range c.descriptions {
		for _, owners := range names {
			total += len(owners)
		}
	}
	return total
}

// ImageURL returns the canonical image URL recorded for a display name.
func (c *Catalog) ImageURL(name string) (string, bool) {
	url, ok := c.names[name]
	return url, ok
}

// Each calls fn for every (description, name) group with its owner set.
// Iteration order is unspecified.
func (c *Catalog) Each(fn func(description, name, imageURL string, owners []Owner)) {
	for description, names := range c.descriptions {
		for name, set := range names {
			owners := make([]Owner, 0, len(set))
			for userID, awardedAt := range set {
				owners = append(owners, Owner{UserID: userID, AwardedAt: awardedAt})
			}
			fn(description, name, c.names[name], owners)
		}
	}
}

// Owners returns the owner set for one (description, name) pair, mainly
// for tests.
func (c *Catalog) Owners(description, name string) []Owner {
	set := c.descriptions[description][name]
	owners := make([]Owner, 0, len(set))
	for userID, awardedAt := range set {
		owners = append(owners, Owner{UserID: userID, AwardedAt: awardedAt})
	}
	return owners
}

func stripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// deriveName extracts the display name from an image URL: the file segment
// after the last slash, minus its extension, with '-' and '_' replaced by
// spaces. Returns false when the URL has no slash or no extension.
func deriveName(imageURL string) (string, bool) {
	slash := strings.LastIndexByte(imageURL, '/')
	if slash < 0 {
		return "", false
	}

	file := imageURL[slash+1:]

	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		return "", false
	}

	name := strings.NewReplacer("-", " ", "_", " ").Replace(file[:dot])

	return name, true
}
