package providers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger writes one line per request into the get/post log stream.
// Server errors go to the error level.
func RequestLogger(logger Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logType := GetLogTypeByRequestType(r.Method)
				format := "request_id=%s method=%s path=%s remote=%s status=%d bytes=%d latency=%s"
				args := []interface{}{
					middleware.GetReqID(r.Context()), r.Method, r.URL.Path, r.RemoteAddr,
					status, ww.BytesWritten(), time.Since(start),
				}
				if status >= http.StatusInternalServerError {
					logger.Errorf(logType, format, args...)
				} else {
					logger.Infof(logType, format, args...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
