package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// LimitBody buffers at most n bytes of the request body and answers 413 beyond that,
// so later middleware can read the body without an unbounded allocation.
func LimitBody(n int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, n))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			next.ServeHTTP(w, r)
		})
	}
}
