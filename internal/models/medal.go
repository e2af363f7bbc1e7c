package models

// Medal is one entry of the medal catalog scraped from the osu! website.
// The JSON tags match the "achievements" objects embedded in the profile
// page's data-initial-data attribute.
type Medal struct {
	ID           uint16  `json:"id"`
	Name         string  `json:"name"`
	IconURL      string  `json:"icon_url"`
	Grouping     string  `json:"grouping"`
	Ordering     uint8   `json:"ordering"`
	Description  string  `json:"description"`
	Mode         *string `json:"mode"`
	Instructions *string `json:"instructions"`
}

// RarityEntry is the per-medal ownership figure of one crawl cycle.
type RarityEntry struct {
	Count     uint32
	Frequency float64
}

// RarityTable maps medal id to its rarity. A fresh table contains an entry
// for every catalog medal, including ones nobody owns yet.
type RarityTable map[uint16]RarityEntry
