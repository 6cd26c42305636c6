// Package geocode определяет название места по координатам через Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"polaroida/internal/config"
	"polaroida/internal/metrics"

	"github.com/patrickmn/go-cache"
)

var (
	ErrBadStatus = errors.New("geocoder returned non-200 status")
	ErrNoPlace   = errors.New("geocoder response has no place name")
)

type address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
}

type reverseResponse struct {
	Address     address `json:"address"`
	DisplayName string  `json:"display_name"`
}

type Client struct {
	log       *slog.Logger
	http      *http.Client
	baseURL   string
	userAgent string
	cache     *cache.Cache
}

func New(log *slog.Logger, cfg config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Client{
		log:       log,
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		cache:     cache.New(ttl, 2*ttl),
	}
}

// Reverse возвращает название места: city > town > village > county > первая часть display_name
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	const op = "services.geocode.Reverse"

	key := cacheKey(lat, lng)
	if name, ok := c.cache.Get(key); ok {
		metrics.GeocodeCacheHits.Inc()
		return name.(string), nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w: %d", op, ErrBadStatus, resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: decode: %w", op, err)
	}

	name := PlaceName(body.Address.City, body.Address.Town, body.Address.Village, body.Address.County, body.DisplayName)
	if name == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoPlace)
	}

	c.cache.SetDefault(key, name)
	c.log.Debug("reverse geocoded", slog.String("op", op), slog.String("place", name))

	return name, nil
}

// PlaceName выбирает первое непустое название
func PlaceName(city, town, village, county, displayName string) string {
	for _, v := range []string{city, town, village, county} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	first, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(first)
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}
