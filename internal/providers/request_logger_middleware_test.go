package providers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestTestLogger struct {
	mu    sync.Mutex
	lines []string
	types []TypeEnum
	level []string
}

func (m *requestTestLogger) add(level string, t TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = append(m.level, level)
	m.types = append(m.types, t)
	m.lines = append(m.lines, fmt.Sprintf(format, args...))
}

func (m *requestTestLogger) Errorf(t TypeEnum, f string, a ...interface{}) {
	m.add("error", t, f, a...)
}
func (m *requestTestLogger) Warnf(t TypeEnum, f string, a ...interface{}) { m.add("warn", t, f, a...) }
func (m *requestTestLogger) Debugf(t TypeEnum, f string, a ...interface{}) {
	m.add("debug", t, f, a...)
}
func (m *requestTestLogger) Infof(t TypeEnum, f string, a ...interface{}) { m.add("info", t, f, a...) }
func (m *requestTestLogger) Fatalf(t TypeEnum, f string, a ...interface{}) {
	m.add("fatal", t, f, a...)
}
func (m *requestTestLogger) Close() {}

func TestRequestLogger_PostStream(t *testing.T) {
	logger := &requestTestLogger{}
	handler := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/transactions", nil))

	require.Len(t, logger.lines, 1)
	assert.Equal(t, TypePost, logger.types[0])
	assert.Equal(t, "info", logger.level[0])
	assert.Contains(t, logger.lines[0], "status=201")
	assert.Contains(t, logger.lines[0], "path=/transactions")
	assert.NotContains(t, logger.lines[0], "request_id= ")
}

func TestRequestLogger_ServerErrorsAtErrorLevel(t *testing.T) {
	logger := &requestTestLogger{}
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fingerprints", nil))

	require.Len(t, logger.lines, 1)
	assert.Equal(t, TypeGet, logger.types[0])
	assert.Equal(t, "error", logger.level[0])
}

func TestRequestLogger_ImplicitOK(t *testing.T) {
	logger := &requestTestLogger{}
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "status=200")
}
