package internal

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fpledger/internal/controllers"
	"fpledger/internal/ledger"
	"fpledger/internal/policy"
	"fpledger/internal/services"
	"fpledger/internal/structures"
	"fpledger/internal/testutil"

	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routeTestConfig() *structures.Config {
	return &structures.Config{
		Storage: structures.StorageConfig{Driver: "memory", Timeout: time.Second},
		Access:  structures.AccessConfig{APIKey: "s3cret", ProtectLookups: true},
	}
}

func newTestHandler(t *testing.T) (http.Handler, *testutil.MockMetrics) {
	t.Helper()
	conf := routeTestConfig()
	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	cache := testutil.NewMockCache()

	svc := services.NewLedgerService(conf, ledger.NewMemoryStore(), cache, metrics, logger)
	ac := controllers.NewApiController(conf, logger, svc, cache, policy.NewSharedSecretAuthorizer(conf))
	hc := controllers.NewHealthController(svc)

	return NewHandler(ac, hc, conf, logger, InitRoutes(ac), metrics), metrics
}

func TestInitRoutes_RegistersLedgerRoutes(t *testing.T) {
	ac := controllers.NewApiController(routeTestConfig(), &testutil.MockLogger{}, &testutil.MockLedgerService{}, testutil.NewMockCache(), &testutil.MockAuthorizer{})

	routes := InitRoutes(ac).GetRoutes()
	require.Len(t, routes, 4)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}
	assert.Contains(t, urls, "/transactions")
	assert.Contains(t, urls, "/fingerprints")
	assert.Contains(t, urls, "/fingerprints/hash/{hash}")
	assert.Contains(t, urls, "/fingerprints/id/{fingerprintId}")
}

func TestHandler_MethodEnforcement(t *testing.T) {
	handler, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/fingerprints", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandler_EndToEnd(t *testing.T) {
	handler, metrics := newTestHandler(t)

	post := func(tx string) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"fingerprintId":"fingerprint-0001","walletAddress":"0x%s","transactionHash":"0x%s","hashedFingerprint":"%s","timestamp":1714557600}`,
			strings.Repeat("a", 40), strings.Repeat(tx, 64), strings.Repeat("c", 64))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)))
		return rr
	}

	assert.Equal(t, http.StatusCreated, post("1").Code)
	assert.Equal(t, http.StatusOK, post("2").Code)

	dup := post("2")
	assert.Equal(t, http.StatusConflict, dup.Code)
	var envelope struct {
		Error     struct{ Code string } `json:"error"`
		RequestID string                `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(dup.Body.Bytes(), &envelope))
	assert.Equal(t, controllers.CodeDuplicateTransaction, envelope.Error.Code)
	assert.NotEmpty(t, envelope.RequestID)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fingerprints", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"fingerprintId":"fingerpr..."`)
	assert.Contains(t, rr.Body.String(), `"privileged":false`)

	req := httptest.NewRequest(http.MethodGet, "/fingerprints/hash/0x"+strings.Repeat("c", 64), nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "0x"+strings.Repeat("2", 64))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"record_count":1`)

	assert.Equal(t, 1, metrics.Created)
	assert.Equal(t, 1, metrics.Appended)
	assert.Equal(t, 1, metrics.Duplicates)
}

func TestHandler_RecoversFromPanics(t *testing.T) {
	conf := routeTestConfig()
	logger := &testutil.MockLogger{}
	svc := &testutil.MockLedgerService{}
	ac := controllers.NewApiController(conf, logger, svc, testutil.NewMockCache(), &testutil.MockAuthorizer{})

	router := InitRoutes(ac)
	router.Get("/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	handler := NewHandler(ac, controllers.NewHealthController(svc), conf, logger, router, testutil.NewMockMetrics())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, logger.Count("error"))
}

func TestHandler_RequestIDPropagates(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/fingerprints/id/fingerprint-0001", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"requestId":"req-42"`)
}
