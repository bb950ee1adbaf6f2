package server

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecFor(t *testing.T) {
	assert.Equal(t, "proto", CodecFor("proto").Name())
	assert.Equal(t, "json", CodecFor("json").Name())
	assert.Equal(t, "json", CodecFor("").Name())
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	env, err := newEnvelope(MsgReinforceCell, "r1", reinforcePayload{X: 3, Y: 4, Count: 25})
	require.NoError(t, err)

	mt, data, err := JSONCodec{}.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)

	got, err := JSONCodec{}.Decode(mt, data)
	require.NoError(t, err)
	assert.Equal(t, MsgReinforceCell, got.Type)
	assert.Equal(t, "r1", got.RequestID)
	assert.Equal(t, reinforcePayload{X: 3, Y: 4, Count: 25}, payloadOf[reinforcePayload](t, got))
}

func TestProtoCodec_RoundTrip(t *testing.T) {
	sent := tradePayload{TargetID: "bot_2", Gold: 120.5, RequestGold: 40}
	env, err := newEnvelope(MsgCreateTradeOffer, "t7", sent)
	require.NoError(t, err)

	mt, data, err := ProtoCodec{}.Encode(env)
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)

	got, err := ProtoCodec{}.Decode(mt, data)
	require.NoError(t, err)
	assert.Equal(t, MsgCreateTradeOffer, got.Type)
	assert.Equal(t, "t7", got.RequestID)
	assert.Equal(t, sent, payloadOf[tradePayload](t, got))
}

func TestProtoCodec_AcceptsTextFrames(t *testing.T) {
	got, err := ProtoCodec{}.Decode(websocket.TextMessage, []byte(`{"type":"leaveRoom"}`))
	require.NoError(t, err)
	assert.Equal(t, MsgLeaveRoom, got.Type)
}

func TestProtoCodec_RejectsGarbage(t *testing.T) {
	_, err := ProtoCodec{}.Decode(websocket.BinaryMessage, []byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
