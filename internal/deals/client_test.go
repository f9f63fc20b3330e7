package deals

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sample = `[
	{"title":"Hades","dealID":"abc","salePrice":"9.99","normalPrice":"24.99","metacriticScore":"93","dealRating":"9.6"},
	{"title":"Borderline","dealID":"b1","salePrice":"4.99","normalPrice":"19.99","metacriticScore":"85","dealRating":"9.9"},
	{"title":"Low Rating","dealID":"b2","salePrice":"4.99","normalPrice":"19.99","metacriticScore":"90","dealRating":"8.9"},
	{"title":"Exact Rating","dealID":"e1","salePrice":"1.00","normalPrice":"10.00","metacriticScore":"86","dealRating":"9.0"},
	{"title":"No Score","dealID":"x","salePrice":"1.00","normalPrice":"10.00","metacriticScore":"","dealRating":"10.0"},
	{"title":"Odd Price","dealID":"p1","salePrice":"n/a","normalPrice":"15.00","metacriticScore":"90","dealRating":"9.5"}
]`

func newAPI(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()

	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		if r.URL.Query().Get("storeID") != "1" || r.URL.Query().Get("upperPrice") != "20" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}

		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestFetchTopDealsFilters(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, sample)

	got := NewClient(srv.URL).FetchTopDeals(context.Background())

	if len(got) != 3 {
		t.Fatalf("got %d deals, want 3: %+v", len(got), got)
	}

	want := Deal{
		Title:           "Hades",
		SalePrice:       9.99,
		NormalPrice:     24.99,
		DealURL:         "https://www.cheapshark.com/redirect.php?dealID=abc",
		MetacriticScore: 93,
		DealRating:      9.6,
	}
	if got[0] != want {
		t.Errorf("got[0] = %+v, want %+v", got[0], want)
	}

	if got[1].Title != "Exact Rating" {
		t.Errorf("got[1].Title = %q, want Exact Rating", got[1].Title)
	}

	if got[2].Title != "Odd Price" || got[2].SalePrice != 0 || got[2].NormalPrice != 15 {
		t.Errorf("got[2] = %+v, want Odd Price kept with zero sale price", got[2])
	}
}

func TestFetchTopDealsFailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"Given server error", http.StatusInternalServerError, "oops"},
		{"Given malformed body", http.StatusOK, "{not json"},
		{"Given empty list", http.StatusOK, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAPI(t, tt.status, tt.body)

			got := NewClient(srv.URL).FetchTopDeals(context.Background())

			if got == nil || len(got) != 0 {
				t.Errorf("FetchTopDeals() = %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestFetchTopDealsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := NewClient(url, WithHTTPClient(&http.Client{Timeout: time.Second})).FetchTopDeals(context.Background())

	if len(got) != 0 {
		t.Errorf("FetchTopDeals() = %v, want empty", got)
	}
}

type memoryCache struct {
	deals  []Deal
	ok     bool
	getErr error
	sets   int
}

func (m *memoryCache) Get(context.Context) ([]Deal, bool, error) {
	return m.deals, m.ok, m.getErr
}

func (m *memoryCache) Set(_ context.Context, deals []Deal, _ time.Duration) error {
	m.deals, m.ok = deals, true
	m.sets++
	return nil
}

func TestFetchTopDealsReadsThroughCache(t *testing.T) {
	srv, calls := newAPI(t, http.StatusOK, sample)
	cache := &memoryCache{}

	client := NewClient(srv.URL, WithCache(cache, time.Minute))

	first := client.FetchTopDeals(context.Background())
	second := client.FetchTopDeals(context.Background())

	if *calls != 1 {
		t.Errorf("API called %d times, want 1", *calls)
	}
	if cache.sets != 1 {
		t.Errorf("cache written %d times, want 1", cache.sets)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Errorf("first = %d deals, second = %d deals", len(first), len(second))
	}
}

func TestFetchTopDealsIgnoresCacheErrors(t *testing.T) {
	srv, calls := newAPI(t, http.StatusOK, sample)
	cache := &memoryCache{getErr: errors.New("connection refused")}

	got := NewClient(srv.URL, WithCache(cache, time.Minute)).FetchTopDeals(context.Background())

	if len(got) != 3 || *calls != 1 {
		t.Errorf("got %d deals with %d API calls, want 3 and 1", len(got), *calls)
	}
}
