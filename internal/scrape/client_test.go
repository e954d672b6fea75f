package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/MenuEditor/internal/core"
)

// mockHTTPClient is a testify mock of HTTPClient.
type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

const okBody = `{
	"success": true,
	"snappfood": {"data_loaded": true, "original_identifier": "abc123", "csv_data": "vendor_code\nabc123\n", "vendor_info": {"vendor_code": "abc123"}},
	"tapsifood": {"data_loaded": false, "error": "Vendor not found", "vendor_info": {}}
}`

func TestClient_Scrape_Success(t *testing.T) {
	var got scrapeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Options{})
	resp, err := c.Scrape(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", got.Identifier)
	assert.True(t, resp.OK)
	assert.True(t, resp.Success)
	require.Len(t, resp.Blocks, 2)
	assert.True(t, resp.Blocks[core.SF].DataLoaded)
	assert.Equal(t, "abc123", resp.Blocks[core.SF].OriginalIdentifier)
	assert.Equal(t, "Vendor not found", resp.Blocks[core.TF].Error)
}

func TestClient_Scrape_BackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success": false, "error": "Identifier not recognised"}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, Options{}).Scrape(context.Background(), "???")
	require.NoError(t, err, "a JSON rejection is a response, not a network failure")

	assert.False(t, resp.OK)
	assert.False(t, resp.Success)
	assert.Equal(t, "Identifier not recognised", resp.Error)
	assert.Empty(t, resp.Blocks)
}

func TestClient_Scrape_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, Options{}).Scrape(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestClient_Scrape_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "error": "`+strings.Repeat("x", 256)+`"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, Options{MaxResponseBytes: 64}).Scrape(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_Scrape_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, Options{Timeout: 20 * time.Millisecond}).Scrape(context.Background(), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Scrape_TransportError(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	c := NewClient("http://scraper.invalid/scrape", Options{HTTP: m})
	_, err := c.Scrape(context.Background(), "abc")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.Contains(t, err.Error(), "connection refused")
	m.AssertExpectations(t)
}

func TestClient_Scrape_RequestShape(t *testing.T) {
	m := &mockHTTPClient{}
	m.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		body, _ := io.ReadAll(req.Body)
		return req.URL.String() == "http://scraper.test/scrape" &&
			req.Header.Get("Accept") == "application/json" &&
			string(body) == `{"identifier":"https://snappfood.ir/restaurant/menu/abc"}`
	})).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"success": true}`)),
		Header:     make(http.Header),
	}, nil).Once()

	c := NewClient("http://scraper.test/scrape", Options{HTTP: m})
	resp, err := c.Scrape(context.Background(), "https://snappfood.ir/restaurant/menu/abc")

	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "http://scraper.test/scrape", c.URL())
	m.AssertExpectations(t)
}

func TestClient_DrivesOrchestrator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, okBody)
	}))
	defer srv.Close()

	store := core.NewStore()
	report, err := core.NewOrchestrator(store, NewClient(srv.URL, Options{})).Load(context.Background(), " abc123 ")
	require.NoError(t, err)

	assert.Equal(t, "SnappFood data for abc123 loaded. TF: Vendor not found", report.Status.Message)
	assert.Equal(t, core.StatusSuccess, report.Status.Level)

	items, err := store.Items(core.SF)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
