package server

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec converts envelopes to and from websocket frames.
type Codec interface {
	Name() string
	Encode(env Envelope) (messageType int, data []byte, err error)
	Decode(messageType int, data []byte) (Envelope, error)
}

// CodecFor returns the codec selected by the ?encoding= query value.
// Unknown values fall back to JSON.
func CodecFor(name string) Codec {
	if name == "proto" {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

// JSONCodec sends envelopes as JSON text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(env Envelope) (int, []byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	return websocket.TextMessage, data, nil
}

func (JSONCodec) Decode(_ int, data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// ProtoCodec sends envelopes as binary google.protobuf.Struct frames with
// the same field names as the JSON form.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return "proto" }

func (ProtoCodec) Encode(env Envelope) (int, []byte, error) {
	fields, err := envelopeFields(env)
	if err != nil {
		return 0, nil, err
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal %s: %w", env.Type, err)
	}
	return websocket.BinaryMessage, data, nil
}

func (ProtoCodec) Decode(messageType int, data []byte) (Envelope, error) {
	if messageType == websocket.TextMessage {
		return JSONCodec{}.Decode(messageType, data)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return JSONCodec{}.Decode(websocket.TextMessage, raw)
}

// envelopeFields flattens env into the generic map structpb accepts.
func envelopeFields(env Envelope) (map[string]interface{}, error) {
	fields := map[string]interface{}{"type": env.Type}
	if env.RequestID != "" {
		fields["requestId"] = env.RequestID
	}
	if len(env.Payload) > 0 {
		var payload interface{}
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", env.Type, err)
		}
		fields["payload"] = payload
	}
	return fields, nil
}
