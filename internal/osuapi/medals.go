package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/osumedals/crawler/internal/models"
)

// medalSourceUser is the profile whose page embeds the full medal catalog
// inside the data-initial-data attribute. Any existing user works; 2 is
// the oldest account and will not disappear.
const medalSourceUser = 2

type initialData struct {
	Medals []models.Medal `json:"achievements"`
}

// Medals scrapes the complete medal catalog from a profile webpage. The
// catalog is not exposed by the JSON API, only as a JSON blob inside the
// page markup.
func (c *Client) Medals(ctx context.Context) ([]models.Medal, error) {
	endpoint := fmt.Sprintf("%s/users/%d", c.baseURL, medalSourceUser)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch medal webpage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read medal webpage: %w", err)
	}

	medals, err := parseMedalPage(body)
	if err != nil {
		return nil, fmt.Errorf("parse medal webpage: %w", err)
	}

	c.logger.Infow("Scraped medal catalog", "medals", len(medals))

	return medals, nil
}

// parseMedalPage walks the page markup for the element carrying the
// data-initial-data attribute and decodes its achievements array.
func parseMedalPage(page []byte) ([]models.Medal, error) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return nil, err
	}

	raw, ok := findInitialData(doc)
	if !ok {
		return nil, fmt.Errorf("no element with data-initial-data attribute")
	}

	var decoded initialData
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode data-initial-data: %w", err)
	}

	if len(decoded.Medals) == 0 {
		return nil, fmt.Errorf("data-initial-data contains no achievements")
	}

	return decoded.Medals, nil
}

func findInitialData(node *html.Node) (string, bool) {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key == "data-initial-data" {
				return attr.Val, true
			}
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if raw, ok := findInitialData(child); ok {
			return raw, true
		}
	}

	return "", false
}
