package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"client_ready","data":{"profile":{"tag":"Alice","room":"2"}}}`))
	require.NoError(t, err)
	assert.Equal(t, ClientReady, env.Event)

	var data ClientReadyData
	require.NoError(t, DecodeData(env, &data))
	require.NotNil(t, data.Profile)
	assert.Equal(t, "Alice", *data.Profile.Tag)
	assert.Equal(t, FlexString("2"), *data.Profile.Room)
}

func TestDecodeEnvelopeNoData(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"request_final_score"}`))
	require.NoError(t, err)
	assert.Equal(t, RequestFinalScore, env.Event)
	assert.Empty(t, env.Data)
}

func TestDecodeEnvelopeRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "ping"},
		{"empty object", "{}"},
		{"blank event", `{"event":""}`},
		{"wrong type", `{"event":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestEncodeFrame(t *testing.T) {
	out, err := EncodeFrame(RoundStarted, 150)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"round_started","data":150}`, string(out))

	out, err = EncodeFrame(RoundEnded, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"round_ended"}`, string(out))
}

func TestFlexStringForms(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    FlexString
		wantErr bool
	}{
		{"string", `{"room":"3"}`, "3", false},
		{"integer", `{"room":3}`, "3", false},
		{"float", `{"room":2.0}`, "2.0", false},
		{"null", `{"room":null}`, "", false},
		{"bool", `{"room":true}`, "", true},
		{"array", `{"room":[1]}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Profile
			err := codec.Unmarshal([]byte(tt.raw), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p.Room)
			assert.Equal(t, tt.want, *p.Room)
		})
	}
}

func TestPlayerScoredDataDistinguishesMissingPoints(t *testing.T) {
	var data PlayerScoredData
	require.NoError(t, codec.Unmarshal([]byte(`{"points":0}`), &data))
	require.NotNil(t, data.Points)
	assert.Equal(t, 0, *data.Points)

	data = PlayerScoredData{}
	require.NoError(t, codec.Unmarshal([]byte(`{}`), &data))
	assert.Nil(t, data.Points)
}
