package proto

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	// registers the stock "proto" codec first so that init below replaces it
	_ "google.golang.org/grpc/encoding/proto"
	gproto "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

// Name is the gRPC codec name. It is the default content-subtype, so
// stock protobuf clients talk to this codec without any call option.
//
// Registering under "proto" replaces grpc's stock codec for the whole
// process, for every service and every importer of this package. To keep
// that safe the codec accepts everything the stock one does: messages of
// this package, APIv2 messages and legacy APIv1 messages. A separate
// content-subtype would not work here because clients of the original
// schema send plain application/grpc.
const Name = "proto"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec encodes the messages of this package and falls back to the
// protobuf runtime for generated messages (health checks, reflection).
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(wireMessage); ok {
		return m.appendWire(nil), nil
	}
	if m := messageV2Of(v); m != nil {
		return gproto.Marshal(m)
	}
	return nil, fmt.Errorf("proto: cannot marshal %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(wireMessage); ok {
		return m.consumeWire(data)
	}
	if m := messageV2Of(v); m != nil {
		return gproto.Unmarshal(data, m)
	}
	return fmt.Errorf("proto: cannot unmarshal into %T", v)
}

// messageV2Of mirrors the stock codec's handling of APIv1 messages.
func messageV2Of(v any) gproto.Message {
	switch m := v.(type) {
	case gproto.Message:
		return m
	case protoadapt.MessageV1:
		return protoadapt.MessageV2Of(m)
	}
	return nil
}

func (codec) Name() string {
	return Name
}

// Marshal encodes a message of this package in protobuf wire format.
func Marshal(v any) ([]byte, error) {
	return codec{}.Marshal(v)
}

// Unmarshal decodes protobuf wire data into a message of this package.
func Unmarshal(data []byte, v any) error {
	return codec{}.Unmarshal(data, v)
}
