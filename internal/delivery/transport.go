package delivery

import (
	"bytes"
	"io"
	"net/http"

	"github.com/and161185/metricspush/internal/utils"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderHash      = "HashSHA256"
)

// HeaderRoundTripper stamps the User-Agent and, when Key is set, the HashSHA256
// digest of the body exactly as it goes on the wire.
type HeaderRoundTripper struct {
	Base      http.RoundTripper
	Key       string
	UserAgent string
}

func (h *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := h.Base
	if rt == nil {
		rt = http.DefaultTransport
	}

	req = req.Clone(req.Context())
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	if h.Key == "" || req.Body == nil {
		return rt.RoundTrip(req)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.Header.Set(HeaderHash, utils.CalculateHash(body, h.Key))

	return rt.RoundTrip(req)
}
