// Package proto holds the CacheService wire schema (cache_service.proto).
// Messages are encoded by hand with protowire so the package builds
// without protoc; the bytes on the wire are plain proto3.
package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// wireMessage is implemented by every message in this package.
type wireMessage interface {
	appendWire(b []byte) []byte
	consumeWire(b []byte) error
}

type Key struct {
	Key string
}

func (m *Key) GetKey() string {
	if m != nil {
		return m.Key
	}
	return ""
}

func (m *Key) appendWire(b []byte) []byte {
	return appendString(b, 1, m.Key)
}

func (m *Key) consumeWire(b []byte) error {
	*m = Key{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeString(typ, b, &m.Key)
		}
		return -1, nil
	})
}

// CacheItem carries a key and its value. An empty Value means a miss.
type CacheItem struct {
	Key   string
	Value string
}

func (m *CacheItem) GetKey() string {
	if m != nil {
		return m.Key
	}
	return ""
}

func (m *CacheItem) GetValue() string {
	if m != nil {
		return m.Value
	}
	return ""
}

func (m *CacheItem) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Key)
	return appendString(b, 2, m.Value)
}

func (m *CacheItem) consumeWire(b []byte) error {
	*m = CacheItem{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Key)
		case 2:
			return consumeString(typ, b, &m.Value)
		}
		return -1, nil
	})
}

type NodeInfo struct {
	Ip   string
	Port int32
}

func (m *NodeInfo) GetIp() string {
	if m != nil {
		return m.Ip
	}
	return ""
}

func (m *NodeInfo) GetPort() int32 {
	if m != nil {
		return m.Port
	}
	return 0
}

func (m *NodeInfo) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Ip)
	if m.Port != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		// negative int32 values are sign extended to ten bytes
		b = protowire.AppendVarint(b, uint64(int64(m.Port)))
	}
	return b
}

func (m *NodeInfo) consumeWire(b []byte) error {
	*m = NodeInfo{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.Ip)
		case 2:
			if typ != protowire.VarintType {
				return -1, nil
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Port = int32(v)
			return n, nil
		}
		return -1, nil
	})
}

type Response struct {
	Success bool
	Message string
}

func (m *Response) GetSuccess() bool {
	if m != nil {
		return m.Success
	}
	return false
}

func (m *Response) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

func (m *Response) appendWire(b []byte) []byte {
	if m.Success {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return appendString(b, 2, m.Message)
}

func (m *Response) consumeWire(b []byte) error {
	*m = Response{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			if typ != protowire.VarintType {
				return -1, nil
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Success = protowire.DecodeBool(v)
			return n, nil
		case 2:
			return consumeString(typ, b, &m.Message)
		}
		return -1, nil
	})
}

// appendString omits empty strings, as proto3 does for default values.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = v
	return n, nil
}

// consumeFields walks the fields of b. field returns the number of bytes
// it consumed, or -1 to have the field skipped as unknown.
func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}
