package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"analysisStatus","data":{"analysisId":"an-1","status":"running"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeAnalysisStatus, ev.Type)

	var payload struct {
		AnalysisID string `json:"analysisId"`
		Status     string `json:"status"`
	}
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "an-1", payload.AnalysisID)
	assert.Equal(t, "running", payload.Status)
}

func TestDecodeEventMalformed(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestDecodeNilData(t *testing.T) {
	ev := &Event{Type: TypeForceLogout}

	var payload struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, ev.Decode(&payload))
	assert.Empty(t, payload.Reason)
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://lab.example.com/api/v1", "wss://lab.example.com/api/v1/events"},
		{"http://localhost:8080", "ws://localhost:8080/events"},
		{"https://lab.example.com/api/v1/", "wss://lab.example.com/api/v1/events"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StreamURL(tt.in), "input %s", tt.in)
	}
}
