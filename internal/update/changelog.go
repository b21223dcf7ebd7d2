package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/types"
)

const (
	// DefaultChangelogBaseURL hosts CHANGELOG.md per branch
	DefaultChangelogBaseURL = "https://raw.githubusercontent.com/PlayTazUO/TazUO/refs/heads"
	// MaxChangelogLength is the number of characters kept before truncation
	MaxChangelogLength = 8000
)

// ChangelogClient fetches the changelog published for a channel
type ChangelogClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
	log       *logrus.Entry
}

// NewChangelogClient creates a changelog client; an empty baseURL uses the default
func NewChangelogClient(baseURL string, client *http.Client, log *logrus.Entry) *ChangelogClient {
	if baseURL == "" {
		baseURL = DefaultChangelogBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ChangelogClient{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		log:       logging.OrDiscard(log).WithField("module", "changelog"),
	}
}

// URL returns the changelog URL for ch
func (c *ChangelogClient) URL(ch types.Channel) string {
	return fmt.Sprintf("%s/%s/CHANGELOG.md", c.baseURL, ch.ChangelogBranch())
}

// Fetch downloads the changelog for ch, truncated to MaxChangelogLength characters
func (c *ChangelogClient) Fetch(ctx context.Context, ch types.Channel) (string, error) {
	url := c.URL(ch)
	c.log.WithField("channel", ch).Debug("Fetching changelog")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Op: "changelog", Channel: ch, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Kind: classifyTransport(ctx, err), Op: "changelog", Channel: ch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindHTTPStatus, Op: "changelog", Channel: ch, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseBytes))
	if err != nil {
		return "", &Error{Kind: classifyTransport(ctx, err), Op: "changelog", Channel: ch, Err: err}
	}

	return TruncateChangelog(string(body), url), nil
}

// TruncateChangelog cuts text to MaxChangelogLength characters and points to url
func TruncateChangelog(text, url string) string {
	runes := []rune(text)
	if len(runes) <= MaxChangelogLength {
		return text
	}
	return string(runes[:MaxChangelogLength]) + "... \n For more see " + url
}
