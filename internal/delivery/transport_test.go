package delivery

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/metricspush/internal/utils"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestHeaderRoundTripper(t *testing.T) {
	var seen *http.Request
	var seenBody string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		return httptest.NewRecorder().Result(), nil
	})

	rt := &HeaderRoundTripper{Base: base, Key: "k", UserAgent: "ua"}
	req := httptest.NewRequest(http.MethodPost, "http://x/ingest", strings.NewReader("payload"))
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, "payload", seenBody)
	require.Equal(t, "ua", seen.Header.Get("User-Agent"))
	require.Equal(t, utils.CalculateHash([]byte("payload"), "k"), seen.Header.Get(HeaderHash))
	require.Empty(t, req.Header.Get(HeaderHash), "caller request is not mutated")
}

func TestHeaderRoundTripper_NoKey(t *testing.T) {
	var seen *http.Request
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return httptest.NewRecorder().Result(), nil
	})

	rt := &HeaderRoundTripper{Base: base}
	resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodPost, "http://x/", strings.NewReader("p")))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Empty(t, seen.Header.Get(HeaderHash))
}
