package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/platform/log"
)

// NovelCOVIDClient decides whether a country is a risk zone from its reported
// case count on disease.sh. Answers are cached per country.
type NovelCOVIDClient struct {
	client   *resty.Client
	minCases int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]riskEntry
}

type riskEntry struct {
	risky     bool
	expiresAt time.Time
}

type countryResponse struct {
	Country string `json:"country"`
	Cases   int64  `json:"cases"`
	Active  int64  `json:"active"`
}

func NewNovelCOVIDClient(cfg config.NovelCOVIDConfig) *NovelCOVIDClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	minCases := cfg.MinCases
	if minCases < 1 {
		minCases = 1
	}

	return &NovelCOVIDClient{
		client:   client,
		minCases: minCases,
		ttl:      cfg.CacheTTL,
		now:      time.Now,
		cache:    make(map[string]riskEntry),
	}
}

func (c *NovelCOVIDClient) IsRiskyCountry(ctx context.Context, country string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		return false, nil
	}

	if risky, ok := c.cached(key); ok {
		return risky, nil
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("country", key).
		SetQueryParam("strict", "false").
		Get("/v3/covid-19/countries/{country}")
	if err != nil {
		return false, fmt.Errorf("country lookup request failed: %w", err)
	}

	var risky bool
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		// "Country not found or doesn't have any cases"
		risky = false
	case resp.IsError():
		return false, fmt.Errorf("country lookup: %w: %s - %s", ErrUnexpectedStatus, resp.Status(), resp.String())
	default:
		var out countryResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return false, fmt.Errorf("failed to parse country response: %w", err)
		}
		risky = out.Cases >= int64(c.minCases)
	}

	c.store(key, risky)
	log.FromCtx(ctx).Debug().Str("country", key).Bool("risky", risky).Msg("risk zone resolved")
	return risky, nil
}

func (c *NovelCOVIDClient) cached(key string) (bool, bool) {
	if c.ttl <= 0 {
		return false, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.cache[key]
	if !ok || c.now().After(e.expiresAt) {
		return false, false
	}
	return e.risky, true
}

func (c *NovelCOVIDClient) store(key string, risky bool) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = riskEntry{risky: risky, expiresAt: c.now().Add(c.ttl)}
}
