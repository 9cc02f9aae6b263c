package event

import (
	"encoding/json"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInbound(t *testing.T) {
	in, err := ParseInbound([]byte(`{"event":"call:end","data":{"targetUserId":"U2"}}`))
	require.NoError(t, err)
	assert.Equal(t, CallEnd, in.Event)

	_, err = ParseInbound([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrEmptyEvent)

	_, err = ParseInbound([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeOffer(t *testing.T) {
	var p CallOfferPayload
	err := Decode(json.RawMessage(`{"targetUserId":"U2","callType":"video","offer":{"type":"offer","sdp":"v=0"}}`), &p)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, p.Offer.Type)
	assert.Equal(t, "video", p.CallType)
}

func TestDecodeOfferRejects(t *testing.T) {
	cases := map[string]string{
		"no target":       `{"callType":"audio","offer":{"type":"offer","sdp":"v=0"}}`,
		"no offer":        `{"targetUserId":"U2","callType":"audio"}`,
		"bad call type":   `{"targetUserId":"U2","callType":"hologram","offer":{"type":"offer","sdp":"v=0"}}`,
		"answer as offer": `{"targetUserId":"U2","callType":"audio","offer":{"type":"answer","sdp":"v=0"}}`,
		"empty sdp":       `{"targetUserId":"U2","callType":"audio","offer":{"type":"offer","sdp":" "}}`,
	}
	for name, raw := range cases {
		var p CallOfferPayload
		assert.Error(t, Decode(json.RawMessage(raw), &p), name)
	}
	var p CallOfferPayload
	assert.Error(t, Decode(nil, &p))
}

func TestDecodeAnswerAndCandidate(t *testing.T) {
	var a CallAnswerPayload
	require.NoError(t, Decode(json.RawMessage(`{"targetUserId":"U1","answer":{"type":"answer","sdp":"v=0"}}`), &a))

	var c CallIceCandidatePayload
	require.NoError(t, Decode(json.RawMessage(`{"targetUserId":"U1","candidate":{"candidate":"candidate:1 1 udp 1 1.2.3.4 5 typ host","sdpMid":"0"}}`), &c))
	require.NotNil(t, c.Candidate.SDPMid)
	assert.Equal(t, "0", *c.Candidate.SDPMid)

	var empty CallIceCandidatePayload
	err := Decode(json.RawMessage(`{"targetUserId":"U1","candidate":{"candidate":""}}`), &empty)
	assert.EqualError(t, err, "candidate must not be empty")
}

func TestEncode(t *testing.T) {
	raw, err := Encode(CallError, CallErrorOut{Message: "User is offline"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"call:error","data":{"message":"User is offline"}}`, string(raw))
}

func TestIsCallEvent(t *testing.T) {
	assert.True(t, IsCallEvent(CallFailed))
	assert.False(t, IsCallEvent(NewMessage))
}
