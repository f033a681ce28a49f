package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/and161185/metricspush/internal/utils"
)

const hashHeader = "HashSHA256"

// VerifyHashMiddleware checks the HashSHA256 header over the raw request body
// and signs the response body the same way. An empty key disables both.
// A request without the header is let through.
func VerifyHashMiddleware(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			if got := r.Header.Get(hashHeader); got != "" && !utils.ValidHash(bodyBytes, key, got) {
				http.Error(w, "invalid hash", http.StatusBadRequest)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			w.Header().Set(hashHeader, utils.CalculateHash(capture.body.Bytes(), key))
			w.WriteHeader(capture.status)
			_, _ = w.Write(capture.body.Bytes())
		})
	}
}

// responseCapture holds the response back so the hash header can precede the body.
type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
}

func (r *responseCapture) Write(b []byte) (int, error) {
	return r.body.Write(b)
}
