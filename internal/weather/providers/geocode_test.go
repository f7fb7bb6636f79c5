package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestGeocode(srv *httptest.Server) *GeocodeClient {
	g := NewGeocodeClient(srv.Client(), "key", 100, 10)
	g.baseURL = srv.URL
	return g
}

func TestGeocodeSearchFormatsDisplayNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Lo" || q.Get("limit") != "10" || q.Get("appid") != "key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"name": "London", "lat": 51.5, "lon": -0.12, "country": "GB", "state": "England"},
			{"name": "Los Angeles", "lat": 34.05, "lon": -118.24, "country": "US", "state": "California"},
			{"name": "Lomé", "lat": 6.13, "lon": 1.22, "country": "TG"}
		]`))
	}))
	defer srv.Close()

	got := newTestGeocode(srv).Search(context.Background(), " Lo ", 10)
	want := []string{"London, England, GB", "Los Angeles, California, US", "Lomé, TG"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGeocodeBlankQuerySkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	got := newTestGeocode(srv).Search(context.Background(), "   ", 10)
	if len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no request for a blank query")
	}
}

func TestGeocodeFailuresAreSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	got := newTestGeocode(srv).Search(context.Background(), "London", 5)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty result on failure, got %#v", got)
	}

	if _, err := newTestGeocode(srv).Lookup(context.Background(), "London", 5); err == nil {
		t.Fatalf("expected Lookup to report the failure")
	}
}

func TestGeocodeRateLimitRespectsContext(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := newTestGeocode(srv)
	g.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	g.Search(context.Background(), "Lo", 5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if got := g.Search(ctx, "Lon", 5); len(got) != 0 {
		t.Fatalf("expected empty result while rate limited, got %v", got)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected only the first request to go out, got %d", hits)
	}
}
