package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/types"
)

const (
	// DefaultUserAgent is sent with every request to the release API
	DefaultUserAgent = "Public"
	// GitHubAPIVersion pins the REST API version
	GitHubAPIVersion = "2022-11-28"
	// DefaultRequestInterval spaces requests to the release API
	DefaultRequestInterval = time.Second

	maxReleaseBytes = 10 << 20
)

// DefaultEndpoints maps every channel to its release metadata URL
var DefaultEndpoints = map[types.Channel]string{
	types.ChannelMain:         "https://api.github.com/repos/PlayTazUO/TazUO/releases/latest",
	types.ChannelDev:          "https://api.github.com/repos/PlayTazUO/TazUO/releases/tags/TazUO-BleedingEdge",
	types.ChannelLauncherSelf: "https://api.github.com/repos/PlayTazUO/TUO-Launcher/releases/latest",
	types.ChannelLegacy:       "https://api.github.com/repos/PlayTazUO/TazUO/releases/tags/TazUO-Legacy",
}

// Registry holds the last known release of every channel
//
// Fetches for one channel are collapsed into a single in-flight request,
// requests to the API are spaced by a rate limiter and guarded by a circuit
// breaker. A failed fetch never evicts previously stored data.
type Registry struct {
	client    *http.Client
	endpoints map[types.Channel]string
	userAgent string
	interval  time.Duration
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	settings  *gobreaker.Settings
	group     singleflight.Group
	now       func() time.Time
	log       *logrus.Entry

	mu       sync.RWMutex
	releases map[types.Channel]*Release
}

// RegistryOption configures a Registry during construction
type RegistryOption func(*Registry)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) {
		r.client = c
	}
}

// WithEndpoints overrides endpoints for the given channels
func WithEndpoints(endpoints map[types.Channel]string) RegistryOption {
	return func(r *Registry) {
		for ch, url := range endpoints {
			if url != "" {
				r.endpoints[ch] = url
			}
		}
	}
}

// WithRequestInterval sets the minimum spacing between API requests
// Zero or negative disables spacing
func WithRequestInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.interval = d
	}
}

// WithUserAgent sets the User-Agent header value
func WithUserAgent(ua string) RegistryOption {
	return func(r *Registry) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithLogger sets the registry logger
func WithLogger(l *logrus.Entry) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

// WithClock sets the time source used for FetchedAt stamps
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithBreaker replaces the circuit breaker settings
func WithBreaker(st gobreaker.Settings) RegistryOption {
	return func(r *Registry) {
		r.settings = &st
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		client:    &http.Client{Timeout: 30 * time.Second},
		endpoints: make(map[types.Channel]string, len(DefaultEndpoints)),
		userAgent: DefaultUserAgent,
		interval:  DefaultRequestInterval,
		now:       time.Now,
		releases:  make(map[types.Channel]*Release),
	}
	for ch, url := range DefaultEndpoints {
		r.endpoints[ch] = url
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log).WithField("module", "registry")

	if r.interval > 0 {
		r.limiter = rate.NewLimiter(rate.Every(r.interval), 1)
	} else {
		r.limiter = rate.NewLimiter(rate.Inf, 1)
	}

	st := gobreaker.Settings{
		Name:    "release-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	if r.settings != nil {
		st = *r.settings
	}
	st.IsSuccessful = upstreamHealthy
	log := r.log
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warnf("Circuit breaker %s changed from %v to %v", name, from, to)
	}
	r.breaker = gobreaker.NewCircuitBreaker(st)

	return r
}

// upstreamHealthy reports whether err says nothing about the API's health
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	var ue *Error
	if errors.As(err, &ue) {
		switch ue.Kind {
		case KindParse:
			return true
		case KindHTTPStatus:
			return ue.StatusCode == http.StatusNotFound
		}
	}
	return false
}

// Endpoint returns the metadata URL for ch
func (r *Registry) Endpoint(ch types.Channel) (string, bool) {
	url, ok := r.endpoints[ch]
	return url, ok
}

// FetchChannel fetches and stores the release of one channel
// Concurrent calls for the same channel share one request
func (r *Registry) FetchChannel(ctx context.Context, ch types.Channel) (*Release, error) {
	return r.fetch(ctx, ch, true)
}

func (r *Registry) fetch(ctx context.Context, ch types.Channel, wait bool) (*Release, error) {
	if err := ch.Validate(); err != nil {
		return nil, &Error{Kind: KindParse, Op: "fetch", Err: err}
	}
	url, ok := r.endpoints[ch]
	if !ok {
		return nil, &Error{Kind: KindNetwork, Op: "fetch", Channel: ch, Err: fmt.Errorf("no endpoint configured")}
	}

	v, err, _ := r.group.Do(ch.String(), func() (any, error) {
		if wait {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, &Error{Kind: KindTimeout, Op: "fetch", Channel: ch, Err: err}
			}
		} else {
			// Priority fetches take a token without waiting so followers stay spaced
			r.limiter.Reserve()
		}

		res, err := r.breaker.Execute(func() (any, error) {
			return r.request(ctx, ch, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, &Error{Kind: KindNetwork, Op: "fetch", Channel: ch, Err: fmt.Errorf("%w: %v", ErrBreakerOpen, err)}
			}
			return nil, err
		}

		rel := res.(*Release)
		r.mu.Lock()
		r.releases[ch] = rel
		r.mu.Unlock()
		return rel, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Release), nil
}

// request performs one metadata request and parses the response
func (r *Registry) request(ctx context.Context, ch types.Channel, url string) (*Release, error) {
	log := r.log.WithField("channel", ch)
	log.Debug("Fetching release data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: "fetch", Channel: ch, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", GitHubAPIVersion)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(ctx, err), Op: "fetch", Channel: ch, Err: err}
	}
	defer resp.Body.Close()

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, &Error{Kind: KindHTTPStatus, Op: "fetch", Channel: ch, StatusCode: resp.StatusCode, Err: rlErr}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindHTTPStatus, Op: "fetch", Channel: ch, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseBytes))
	if err != nil {
		return nil, &Error{Kind: classifyTransport(ctx, err), Op: "fetch", Channel: ch, Err: err}
	}

	rel, err := parseRelease(body)
	if err != nil {
		return nil, &Error{Kind: KindParse, Op: "fetch", Channel: ch, Err: err}
	}
	rel.Channel = ch
	rel.FetchedAt = r.now()

	log.WithField("version", rel.Version.String()).Debug("Fetched release data")
	return rel, nil
}

// parseRelease decodes a release document
func parseRelease(body []byte) (*Release, error) {
	var raw githubRelease
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	name := raw.Name
	if name == "" {
		name = raw.TagName
	}

	rel := &Release{
		Name:    name,
		TagName: raw.TagName,
		Version: ParseVersionLenient(name),
		HTMLURL: raw.HTMLURL,
		Assets:  make([]Asset, 0, len(raw.Assets)),
	}
	if raw.PublishedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			rel.PublishedAt = ts
		}
	}
	for _, a := range raw.Assets {
		rel.Assets = append(rel.Assets, Asset{
			Name:        a.Name,
			DownloadURL: a.BrowserDownloadURL,
			Size:        a.Size,
		})
	}
	return rel, nil
}

// checkRateLimit returns a RateLimitError when the remaining quota is zero
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	resetUnix, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(resetUnix, 0)}
}

// FetchSummary reports the outcome of a FetchAll batch
type FetchSummary struct {
	Fetched []types.Channel
	Errors  map[types.Channel]error
}

// Err joins the per-channel errors, nil when every channel succeeded
func (s FetchSummary) Err() error {
	if len(s.Errors) == 0 {
		return nil
	}
	channels := make([]string, 0, len(s.Errors))
	for ch := range s.Errors {
		channels = append(channels, ch.String())
	}
	sort.Strings(channels)
	errs := make([]error, 0, len(channels))
	for _, name := range channels {
		errs = append(errs, s.Errors[types.Channel(name)])
	}
	return errors.Join(errs...)
}

// FetchAll refreshes every channel, best effort
//
// The priority channel, if valid, is fetched first without waiting for the
// limiter. The remaining channels are fetched concurrently, spaced by the
// limiter. Failures are logged and collected, never aborting the batch.
func (r *Registry) FetchAll(ctx context.Context, priority types.Channel) FetchSummary {
	summary := FetchSummary{Errors: make(map[types.Channel]error)}
	var mu sync.Mutex
	record := func(ch types.Channel, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			summary.Errors[ch] = err
			r.log.WithError(err).WithField("channel", ch).Warn("Failed to fetch release data")
			return
		}
		summary.Fetched = append(summary.Fetched, ch)
	}

	rest := make([]types.Channel, 0, len(r.endpoints))
	if priority.Validate() == nil {
		_, err := r.fetch(ctx, priority, false)
		record(priority, err)
	}
	for _, ch := range types.AllChannels() {
		if ch != priority {
			rest = append(rest, ch)
		}
	}

	var wg sync.WaitGroup
	for _, ch := range rest {
		wg.Add(1)
		go func(ch types.Channel) {
			defer wg.Done()
			_, err := r.fetch(ctx, ch, true)
			record(ch, err)
		}(ch)
	}
	wg.Wait()

	return summary
}

// FetchAllAsync runs FetchAll in the background
// The returned channel receives the summary and is then closed
func (r *Registry) FetchAllAsync(ctx context.Context, priority types.Channel) <-chan FetchSummary {
	done := make(chan FetchSummary, 1)
	go func() {
		defer close(done)
		done <- r.FetchAll(ctx, priority)
	}()
	return done
}

// Get returns the stored release of ch
func (r *Registry) Get(ch types.Channel) (*Release, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rel, ok := r.releases[ch]
	return rel, ok && rel != nil
}

// Has returns true if data is stored for ch
func (r *Registry) Has(ch types.Channel) bool {
	_, ok := r.Get(ch)
	return ok
}

// Snapshot returns a copy of all stored releases
func (r *Registry) Snapshot() map[types.Channel]*Release {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[types.Channel]*Release, len(r.releases))
	for ch, rel := range r.releases {
		out[ch] = rel
	}
	return out
}

// Put stores rel for its channel, replacing any previous entry
func (r *Registry) Put(rel *Release) {
	if rel == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases[rel.Channel] = rel
}
