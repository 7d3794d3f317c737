package attendance

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"misattend/lib/attendstore"
	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t testing.TB, router http.Handler, method, path, token string) (int, envelope) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body envelope
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err, rec.Body.String())
	return rec.Code, body
}

func TestApi(t *testing.T) {
	service := NewService(Params{
		Scraper: &fakeScraper{report: testReport},
		History: setupHistory(t),
	}, telemetry.NewRecorder())
	router := NewHandler(service, ApiConfig{ScrapesPerMinute: 60}).Router()

	{
		code, body := do(t, router, http.MethodGet, "/attendance", "")
		require.Equal(t, http.StatusNotFound, code)
		require.False(t, body.Success)
		require.Equal(t, attendstore.ErrNoSnapshots.Error(), body.Error)
	}
	{
		code, body := do(t, router, http.MethodPost, "/scrape", "")
		require.Equal(t, http.StatusOK, code)
		require.True(t, body.Success)

		var result Result
		require.NoError(t, json.Unmarshal(body.Data, &result))
		require.Equal(t, testReport, result.Report)
	}
	{
		code, body := do(t, router, http.MethodGet, "/attendance", "")
		require.Equal(t, http.StatusOK, code)

		var snapshot attendstore.Snapshot
		require.NoError(t, json.Unmarshal(body.Data, &snapshot))
		require.Equal(t, testReport, snapshot.Report)
	}
	{
		code, body := do(t, router, http.MethodGet, "/history?limit=5", "")
		require.Equal(t, http.StatusOK, code)

		var snapshots []attendstore.Snapshot
		require.NoError(t, json.Unmarshal(body.Data, &snapshots))
		require.Len(t, snapshots, 1)
	}
	{
		code, body := do(t, router, http.MethodGet, "/history/dss", "")
		require.Equal(t, http.StatusOK, code)

		var series SubjectHistory
		require.NoError(t, json.Unmarshal(body.Data, &series))
		require.Equal(t, "DSS", series.Subject)
	}
	{
		code, _ := do(t, router, http.MethodGet, "/history/quantum", "")
		require.Equal(t, http.StatusNotFound, code)
	}
}

func TestApiScrapeFailure(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{err: mis.ErrNavigationTimeout, expected: http.StatusGatewayTimeout},
		{err: mis.ErrAuthenticationFailed, expected: http.StatusBadGateway},
		{err: mis.ErrTableNotFound, expected: http.StatusBadGateway},
		{err: errors.New("chrome crashed"), expected: http.StatusInternalServerError},
	}
	for _, test := range cases {
		service := NewService(Params{Scraper: &fakeScraper{err: test.err}}, telemetry.NewRecorder())
		router := NewHandler(service, ApiConfig{}).Router()

		code, body := do(t, router, http.MethodPost, "/scrape", "")
		require.Equal(t, test.expected, code)
		require.False(t, body.Success)
		require.Equal(t, test.err.Error(), body.Error)
		require.Empty(t, body.Data)
	}
}

func TestApiRateLimit(t *testing.T) {
	service := NewService(Params{Scraper: &fakeScraper{report: testReport}}, telemetry.NewRecorder())
	router := NewHandler(service, ApiConfig{ScrapesPerMinute: 1}).Router()

	code, _ := do(t, router, http.MethodPost, "/scrape", "")
	require.Equal(t, http.StatusOK, code)
	code, body := do(t, router, http.MethodPost, "/scrape", "")
	require.Equal(t, http.StatusTooManyRequests, code)
	require.False(t, body.Success)
}

func TestApiAccessToken(t *testing.T) {
	service := NewService(Params{Scraper: &fakeScraper{report: testReport}}, telemetry.NewRecorder())
	router := NewHandler(service, ApiConfig{AccessToken: "secret"}).Router()

	code, _ := do(t, router, http.MethodGet, "/attendance", "")
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, router, http.MethodGet, "/attendance", "secret")
	require.Equal(t, http.StatusNotImplemented, code)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
