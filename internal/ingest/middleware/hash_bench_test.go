package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/and161185/metricspush/internal/utils"
)

func BenchmarkVerifyHashMiddleware(b *testing.B) {
	key := "bench-key"
	body := gzipBody(bytes.Repeat([]byte("requests_total{job=\"ci\"} 1\n"), 200))
	hash := utils.CalculateHash(body, key)
	h := VerifyHashMiddleware(key)(okHandler())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("HashSHA256", hash)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
