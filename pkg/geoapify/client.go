// Package geoapify provides a client for the Geoapify geocoding and places
// APIs. Responses are cached in-process with TTL+LRU eviction, concurrent
// identical queries are collapsed via singleflight, and transient upstream
// failures (429, 5xx, network timeouts) are retried with backoff.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/tablescout/internal/resilience"
	"github.com/sells-group/tablescout/internal/venue"
)

// ErrProvider marks upstream failures so callers can distinguish them from
// "no results". Check with errors.Is.
var ErrProvider = eris.New("geoapify: provider failure")

// GeocodeResult is a resolved forward-geocode hit.
type GeocodeResult struct {
	Point orb.Point
	Bound *orb.Bound
}

// CircleQuery asks for places inside a circle around a center point.
type CircleQuery struct {
	Center   orb.Point
	RadiusKm float64
	Category string
	Limit    int
	Lang     string
}

// RectQuery asks for places inside a lon/lat bounding box.
type RectQuery struct {
	Bound    orb.Bound
	Category string
	Limit    int
	Lang     string
}

// Client calls the Geoapify HTTP API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig

	sf           singleflight.Group
	geocodeCache *queryCache[*GeocodeResult]
	placesCache  *queryCache[[]venue.Venue]
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSec), 1) }
}

// WithCache overrides cache capacity and TTL.
func WithCache(maxEntries int, ttl time.Duration) Option {
	return func(c *Client) {
		c.geocodeCache = newQueryCache[*GeocodeResult](maxEntries, ttl)
		c.placesCache = newQueryCache[[]venue.Venue](maxEntries, ttl)
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a Geoapify client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://api.geoapify.com",
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:      rate.NewLimiter(rate.Limit(5), 1),
		retry:        resilience.DefaultRetryConfig(),
		geocodeCache: newQueryCache[*GeocodeResult](128, 30*time.Minute),
		placesCache:  newQueryCache[[]venue.Venue](128, 30*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves free text to a coordinate. It returns (nil, nil) when
// the geocoder has no result for the text.
func (c *Client) Geocode(ctx context.Context, text, lang string) (*GeocodeResult, error) {
	key := fmt.Sprintf("geocode:%s:%s", lang, strings.ToLower(strings.TrimSpace(text)))
	if cached, ok := c.geocodeCache.get(key); ok {
		return cached, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		params := url.Values{}
		params.Set("text", text)
		params.Set("limit", "1")
		params.Set("lang", lang)

		body, err := c.doGet(ctx, "/v1/geocode/search", params)
		if err != nil {
			return nil, err
		}

		result, err := parseGeocode(body)
		if err != nil {
			return nil, err
		}
		c.geocodeCache.put(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*GeocodeResult), nil
}

// PlacesCircle returns places inside the query circle.
func (c *Client) PlacesCircle(ctx context.Context, q CircleQuery) ([]venue.Venue, error) {
	radiusM := max(q.RadiusKm, 0.1) * 1000.0
	key := fmt.Sprintf("circle:%s:%s:%.4f,%.4f:%.0f:%d",
		orDefault(q.Category, "*"), q.Lang, q.Center.Lon(), q.Center.Lat(), radiusM, q.Limit)

	params := url.Values{}
	params.Set("filter", fmt.Sprintf("circle:%v,%v,%.0f", q.Center.Lon(), q.Center.Lat(), radiusM))
	params.Set("bias", fmt.Sprintf("proximity:%v,%v", q.Center.Lon(), q.Center.Lat()))
	params.Set("limit", fmt.Sprintf("%d", q.Limit))
	params.Set("lang", q.Lang)
	if q.Category != "" {
		params.Set("categories", q.Category)
	}

	return c.places(ctx, key, params)
}

// PlacesRect returns places inside the query bounding box, biased toward
// its center.
func (c *Client) PlacesRect(ctx context.Context, q RectQuery) ([]venue.Venue, error) {
	b := q.Bound
	key := fmt.Sprintf("rect:%s:%s:%.4f,%.4f,%.4f,%.4f:%d",
		orDefault(q.Category, "*"), q.Lang, b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat(), q.Limit)

	center := b.Center()
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("rect:%v,%v,%v,%v", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()))
	params.Set("bias", fmt.Sprintf("proximity:%v,%v", center.Lon(), center.Lat()))
	params.Set("limit", fmt.Sprintf("%d", q.Limit))
	params.Set("lang", q.Lang)
	if q.Category != "" {
		params.Set("categories", q.Category)
	}

	return c.places(ctx, key, params)
}

func (c *Client) places(ctx context.Context, key string, params url.Values) ([]venue.Venue, error) {
	if cached, ok := c.placesCache.get(key); ok {
		return cached, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		body, err := c.doGet(ctx, "/v2/places", params)
		if err != nil {
			return nil, err
		}
		venues, err := parsePlaces(body)
		if err != nil {
			return nil, err
		}
		c.placesCache.put(key, venues)
		return venues, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]venue.Venue), nil
}

// doGet performs a rate-limited GET with bounded retries on transient
// failures. Retries stay local to this call.
func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("apiKey", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geoapify: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geoapify: read response body")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("geoapify: upstream %d: %s", resp.StatusCode, snippet(data)), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("geoapify: upstream %d: %s", resp.StatusCode, snippet(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, eris.Wrap(ErrProvider, err.Error())
	}
	return body, nil
}

func parseGeocode(body []byte) (*GeocodeResult, error) {
	var payload featureCollection
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "geoapify: unmarshal geocode response")
	}
	if len(payload.Features) == 0 {
		return nil, nil
	}

	props := payload.Features[0].Properties
	if props.Lon == nil || props.Lat == nil {
		return nil, nil
	}

	result := &GeocodeResult{Point: orb.Point{*props.Lon, *props.Lat}}
	if len(props.BBox) == 4 {
		result.Bound = &orb.Bound{
			Min: orb.Point{props.BBox[0], props.BBox[1]},
			Max: orb.Point{props.BBox[2], props.BBox[3]},
		}
	}
	return result, nil
}

func snippet(data []byte) string {
	const maxLen = 300
	if len(data) > maxLen {
		return string(data[:maxLen])
	}
	return string(data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
