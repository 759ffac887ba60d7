// Package release checks GitHub for newer kaspamon releases.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/kostyay/kaspamon/internal/model"
)

// DefaultBaseURL is the GitHub API root.
const DefaultBaseURL = "https://api.github.com"

const requestTimeout = 5 * time.Second

// githubRelease represents the minimal response from GitHub releases API.
type githubRelease struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
}

// Checker queries the GitHub releases API.
type Checker struct {
	Client  *http.Client
	BaseURL string
}

// CheckLatest fetches the latest release of owner/repo. It returns nil when
// the latest release is not newer than current.
func (c *Checker) CheckLatest(ctx context.Context, owner, repo, current string) (*model.Release, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimRight(base, "/"), owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api returned %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	if rel.TagName == "" || rel.Draft || rel.Prerelease {
		return nil, nil
	}

	newer, err := IsNewer(rel.TagName, current)
	if err != nil {
		return nil, err
	}
	if !newer {
		return nil, nil
	}
	return &model.Release{Version: rel.TagName, URL: rel.HTMLURL, PublishedAt: rel.PublishedAt}, nil
}

// IsNewer reports whether latest is a higher semantic version than current.
// Development builds ("dev" or empty) are always behind.
func IsNewer(latest, current string) (bool, error) {
	if current == "" || current == "dev" {
		return true, nil
	}
	l, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("parse latest version %q: %w", latest, err)
	}
	c, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	return l.GreaterThan(c), nil
}
