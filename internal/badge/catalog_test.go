package badge

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
)

func testObservation(desc, imageURL string) models.BadgeObservation {
	return models.BadgeObservation{
		Description: desc,
		ImageURL:    imageURL,
		AwardedAt:   time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPushIdempotent(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())
	obs := testObservation("Contest winner", "https://assets.ppy.sh/profile-badges/contest-winner.png?2")

	c.Push(7, obs)
	c.Push(7, obs)

	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d after duplicate push, want 1", got)
	}
	if owners := c.Owners("Contest winner", "contest winner"); len(owners) != 1 || owners[0].UserID != 7 {
		t.Errorf("unexpected owners: %v", owners)
	}
}

func TestPushDerivesNameAndStripsQuery(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())
	c.Push(1, testObservation("desc", "https://assets.ppy.sh/profile-badges/mwc_7k-2021_winner.png?v=3"))

	url, ok := c.ImageURL("mwc 7k 2021 winner")
	if !ok {
		t.Fatal("derived name not registered")
	}
	if url != "https://assets.ppy.sh/profile-badges/mwc_7k-2021_winner.png" {
		t.Errorf("image URL not stripped of query string: %q", url)
	}
}

func TestPushDropsMalformed(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())

	// No slash, then no extension: both observations dropped without panic.
	c.Push(1, testObservation("desc", "not-a-path.png"))
	c.Push(1, testObservation("desc", "https://assets.ppy.sh/profile-badges/noext"))

	if got := c.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0 for malformed observations", got)
	}
}

func TestSameDescriptionDifferentImages(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())

	// Identical description text, distinct image assets: two identities.
	c.Push(1, testObservation("Tournament winner", "https://a/badges/owc-2020.png"))
	c.Push(2, testObservation("Tournament winner", "https://a/badges/twc-2020.png"))

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 distinct identities", got)
	}
	if len(c.Owners("Tournament winner", "owc 2020")) != 1 {
		t.Error("owner missing under first identity")
	}
	if len(c.Owners("Tournament winner", "twc 2020")) != 1 {
		t.Error("owner missing under second identity")
	}
}

func TestFirstImageWins(t *testing.T) {
	c := NewCatalog(zap.NewNop().Sugar())

	c.Push(1, testObservation("desc", "https://a/badges/winner.png"))
	c.Push(2, testObservation("desc", "https://b/other/winner.png"))

	if url, _ := c.ImageURL("winner"); url != "https://a/badges/winner.png" {
		t.Errorf("first image occurrence should win, got %q", url)
	}
	if len(c.Owners("desc", "winner")) != 2 {
		t.Error("both owners should be recorded under the shared name")
	}
}

func TestMergeCommutative(t *testing.T) {
	build := func() (*Catalog, *Catalog) {
		a := NewCatalog(zap.NewNop().Sugar())
		a.Push(1, testObservation("shared", "https://a/badges/shared.png"))
		a.Push(2, testObservation("shared", "https://a/badges/shared.png"))
		a.Push(3, testObservation("only-a", "https://a/badges/alpha.png"))

		b := NewCatalog(zap.NewNop().Sugar())
		b.Push(2, testObservation("shared", "https://a/badges/shared.png"))
		b.Push(4, testObservation("shared", "https://a/badges/shared.png"))
		b.Push(5, testObservation("only-b", "https://a/badges/beta.png"))

		return a, b
	}

	ab, other := build()
	ab.Merge(other)

	a2, ba := build()
	ba.Merge(a2)

	if ab.Len() != ba.Len() {
		t.Fatalf("merge not commutative: %d vs %d edges", ab.Len(), ba.Len())
	}
	if got := ab.Len(); got != 5 {
		t.Errorf("merged Len() = %d, want 5", got)
	}
	if len(ab.Owners("shared", "shared")) != 3 {
		t.Error("shared owner sets should union to {1,2,4}")
	}
}

func TestMergeCreatesMissingPaths(t *testing.T) {
	a := NewCatalog(zap.NewNop().Sugar())
	b := NewCatalog(zap.NewNop().Sugar())
	b.Push(9, testObservation("new desc", "https://a/badges/fresh.png"))

	a.Merge(b)

	if len(a.Owners("new desc", "fresh")) != 1 {
		t.Error("merge should create absent description/name paths")
	}
	if _, ok := a.ImageURL("fresh"); !ok {
		t.Error("merge should carry the names mapping over")
	}

	a.Merge(nil) // must not panic
}
