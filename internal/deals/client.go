// Package deals fetches highly rated game deals from CheapShark.
package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultURL  = "https://www.cheapshark.com/api/1.0/deals"
	redirectURL = "https://www.cheapshark.com/redirect.php?dealID="

	storeID    = "1"
	upperPrice = "20"

	minMetacritic = 85
	minRating     = 9.0

	requestTimeout = 10 * time.Second
)

type Deal struct {
	Title           string  `json:"title"`
	SalePrice       float64 `json:"sale_price"`
	NormalPrice     float64 `json:"normal_price"`
	DealURL         string  `json:"deal_url"`
	MetacriticScore int     `json:"metacritic_score"`
	DealRating      float64 `json:"deal_rating"`
}

// apiDeal is one entry of the CheapShark response. Numbers arrive as strings.
type apiDeal struct {
	Title           string `json:"title"`
	DealID          string `json:"dealID"`
	SalePrice       string `json:"salePrice"`
	NormalPrice     string `json:"normalPrice"`
	MetacriticScore string `json:"metacriticScore"`
	DealRating      string `json:"dealRating"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	ttl        time.Duration
}

type Option func(*Client)

// WithCache makes FetchTopDeals read through the given cache.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchTopDeals returns Steam deals under $20 with a Metacritic score above 85
// and a deal rating of at least 9. Failures are logged and yield an empty list.
func (c *Client) FetchTopDeals(ctx context.Context) []Deal {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx)

		if err != nil {
			log.Printf("Deals cache read failed: %v", err)
		} else if ok {
			return cached
		}
	}

	result, err := c.fetch(ctx)

	if err != nil {
		log.Printf("Failed to fetch deals: %v", err)
		return []Deal{}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, result, c.ttl); err != nil {
			log.Printf("Deals cache write failed: %v", err)
		}
	}

	return result
}

func (c *Client) fetch(ctx context.Context) ([]Deal, error) {
	u, err := url.Parse(c.baseURL)

	if err != nil {
		return nil, fmt.Errorf("invalid deals URL: %w", err)
	}

	q := u.Query()
	q.Set("storeID", storeID)
	q.Set("upperPrice", upperPrice)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)

	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("deals API returned status %d", resp.StatusCode)
	}

	var raw []apiDeal

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode deals: %w", err)
	}

	return filter(raw), nil
}

func filter(raw []apiDeal) []Deal {
	result := []Deal{}

	for _, d := range raw {
		deal, ok := convert(d)

		if !ok {
			continue
		}

		if deal.MetacriticScore > minMetacritic && deal.DealRating >= minRating {
			result = append(result, deal)
		}
	}

	return result
}

func convert(d apiDeal) (Deal, bool) {
	score, err := strconv.Atoi(d.MetacriticScore)
	if err != nil {
		return Deal{}, false
	}

	rating, err := strconv.ParseFloat(d.DealRating, 64)
	if err != nil {
		return Deal{}, false
	}

	// Prices are display-only; an unparseable one shows as zero
	sale, _ := strconv.ParseFloat(d.SalePrice, 64)
	normal, _ := strconv.ParseFloat(d.NormalPrice, 64)

	return Deal{
		Title:           d.Title,
		SalePrice:       sale,
		NormalPrice:     normal,
		DealURL:         redirectURL + d.DealID,
		MetacriticScore: score,
		DealRating:      rating,
	}, true
}
