package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"mailtrace/internal/model"
)

func TestResolveSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "fields=")
		w.Write([]byte(`{
			"status": "success",
			"country": "United States",
			"countryCode": "US",
			"regionName": "Virginia",
			"city": "Ashburn",
			"lat": 39.03,
			"lon": -77.5,
			"timezone": "America/New_York",
			"isp": "Google LLC",
			"org": "Google Public DNS",
			"mobile": false,
			"proxy": false,
			"hosting": true
		}`))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, 3*time.Second)
	loc := resolver.Resolve(context.Background(), "8.8.8.8")

	lat, lon := 39.03, -77.5
	want := model.Location{
		City:        "Ashburn",
		Region:      "Virginia",
		Country:     "United States",
		CountryCode: "US",
		ISP:         "Google LLC",
		Org:         "Google Public DNS",
		Timezone:    "America/New_York",
		Lat:         &lat,
		Lon:         &lon,
		IsHosting:   true,
	}
	if diff := cmp.Diff(want, loc); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFailStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, 3*time.Second)
	loc := resolver.Resolve(context.Background(), "192.0.2.1")

	assert.Equal(t, "Unknown", loc.City)
	assert.Equal(t, "Unknown", loc.Country)
	assert.Nil(t, loc.Lat)
}

func TestResolveHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, 3*time.Second)
	loc := resolver.Resolve(context.Background(), "8.8.8.8")

	assert.Equal(t, "Unknown", loc.City)
}

func TestResolveTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"status":"success","city":"Late"}`))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL, 50*time.Millisecond)

	start := time.Now()
	loc := resolver.Resolve(context.Background(), "8.8.8.8")

	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, "Unknown", loc.City)
}

func TestResolveTransportError(t *testing.T) {
	// 指向一个已关闭的地址
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	resolver := NewResolver(server.URL, 1*time.Second)
	loc := resolver.Resolve(context.Background(), "8.8.8.8")

	assert.Equal(t, "Unknown", loc.City)
}
