package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conkiri_sight/internal/adapters/sightapi"
)

func logged(t *testing.T, err error) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	withKind(l.Warn(), err).Msg("archive failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestWithKind_APIError(t *testing.T) {
	line := logged(t, &sightapi.Error{Kind: sightapi.KindTimeout, Message: sightapi.MsgTimeout})
	assert.Equal(t, "timeout", line["kind"])
	assert.Equal(t, sightapi.MsgTimeout, line["error"])
}

func TestWithKind_StorageErrorHasNoKind(t *testing.T) {
	line := logged(t, errors.New("upsert reviews for arena:3: deadlock"))
	assert.NotContains(t, line, "kind")
	assert.Equal(t, "upsert reviews for arena:3: deadlock", line["error"])
}
