package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/metricspush/internal/errs"
	"github.com/and161185/metricspush/model"
)

func TestParseLine_Skips(t *testing.T) {
	for _, line := range []string{"", "   ", "# comment", "  #indented"} {
		rec, err := ParseLine(line)
		require.NoError(t, err)
		require.Nil(t, rec)
	}
}

func TestParseLine_Full(t *testing.T) {
	rec, err := ParseLine(`{"metric":"api.latency","type":"guage","value":1.50,"tags":{"env":"prod","shard":3,"canary":true},"timestamp":1700000000123}`)
	require.NoError(t, err)
	require.Equal(t, "api.latency", rec.Name)
	require.Equal(t, model.Gauge, rec.Type)
	require.Equal(t, "guage", rec.DeclaredRaw)
	require.NotNil(t, rec.Value)
	require.Equal(t, "1.50", *rec.Value)
	require.Equal(t, map[string]string{"env": "prod", "shard": "3", "canary": "true"}, rec.Tags)
	require.NotNil(t, rec.TimestampMs)
	require.EqualValues(t, 1700000000123, *rec.TimestampMs)
}

func TestParseLine_Defaults(t *testing.T) {
	rec, err := ParseLine(`{"metric":"reqs","type":"count"}`)
	require.NoError(t, err)
	require.Equal(t, model.Counter, rec.Type)
	require.Nil(t, rec.Value)
	require.Nil(t, rec.Tags)
	require.Nil(t, rec.TimestampMs)

	rec, err = ParseLine(`{"metric":"temp"}`)
	require.NoError(t, err)
	require.Equal(t, model.Gauge, rec.Type)
	require.Empty(t, rec.DeclaredRaw)
}

func TestParseLine_ValueKinds(t *testing.T) {
	cases := map[string]*string{
		`{"metric":"m","value":"abc"}`: strPtr("abc"),
		`{"metric":"m","value":-3}`:    strPtr("-3"),
		`{"metric":"m","value":1e3}`:   strPtr("1e3"),
		`{"metric":"m","value":null}`:  nil,
		`{"metric":"m","value":false}`: strPtr("false"),
	}
	for line, want := range cases {
		rec, err := ParseLine(line)
		require.NoError(t, err, line)
		require.Equal(t, want, rec.Value, line)
	}
}

func TestParseLine_IgnoresBadTimestamps(t *testing.T) {
	for _, line := range []string{
		`{"metric":"m","timestamp":-5}`,
		`{"metric":"m","timestamp":1.5}`,
		`{"metric":"m","timestamp":"1700000000000"}`,
	} {
		rec, err := ParseLine(line)
		require.NoError(t, err, line)
		require.Nil(t, rec.TimestampMs, line)
	}
}

func TestParseLine_Errors(t *testing.T) {
	cases := []struct {
		line string
		want error
	}{
		{`not json`, errs.ErrMalformedInput},
		{`{"metric":"a"} trailing`, errs.ErrMalformedInput},
		{`["metric"]`, errs.ErrMalformedInput},
		{`{"value":1}`, errs.ErrMissingName},
		{`{"metric":""}`, errs.ErrMissingName},
		{`{"metric":42}`, errs.ErrMissingName},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			_, err := ParseLine(tc.line)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReader(t *testing.T) {
	in := strings.Join([]string{
		`# header`,
		`{"metric":"a","value":1}`,
		``,
		`{broken`,
		`{"metric":"b","value":2}`,
	}, "\n")
	r := NewReader(strings.NewReader(in))

	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "a", rec.Name)
	require.Equal(t, 2, rec.Line)

	_, err = r.Next()
	require.ErrorIs(t, err, errs.ErrMalformedInput)
	require.Contains(t, err.Error(), "line 4")

	rec, err = r.Next()
	require.NoError(t, err)
	require.Equal(t, "b", rec.Name)
	require.Equal(t, 5, rec.Line)

	_, err = r.Next()
	require.True(t, errors.Is(err, io.EOF))
}

func strPtr(s string) *string { return &s }
