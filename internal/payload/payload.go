// Package payload builds the JSON body sent to the ingestion endpoint.
package payload

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/and161185/metricspush/model"
)

// Build encodes the delivery body. The metrics text is embedded verbatim and the
// signature field is omitted when signature is empty.
func Build(runner, metrics, signature string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(model.Payload{Runner: runner, Metrics: metrics, Signature: signature}); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Parse decodes a body produced by Build.
func Parse(body []byte) (model.Payload, error) {
	var p model.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
