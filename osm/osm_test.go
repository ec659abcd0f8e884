package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"place_id": 1, "display_name": "MG Road, Jubilee Hills, Hyderabad"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	address, err := c.ReverseGeocode(context.Background(), 17.4401, 78.3489)
	assert.NoError(t, err)
	assert.Equal(t, "MG Road, Jubilee Hills, Hyderabad", address)
}

func TestReverseGeocodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	_, err := c.ReverseGeocode(context.Background(), 17.4401, 78.3489)
	assert.Error(t, err)
}

func TestReverseGeocodeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	_, err := c.ReverseGeocode(context.Background(), 17.4401, 78.3489)
	assert.Error(t, err)
}
