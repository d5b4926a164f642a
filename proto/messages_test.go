package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// bytes as produced by protoc-generated code for the same schema
func TestMarshal_MatchesProtocEncoding(t *testing.T) {
	cases := []struct {
		name string
		msg  any
		want []byte
	}{
		{"key", &Key{Key: "x"}, []byte{0x0a, 0x01, 'x'}},
		{"item", &CacheItem{Key: "k", Value: "v"}, []byte{0x0a, 0x01, 'k', 0x12, 0x01, 'v'}},
		{"miss", &CacheItem{Key: "k"}, []byte{0x0a, 0x01, 'k'}},
		{"node", &NodeInfo{Ip: "h", Port: 300}, []byte{0x0a, 0x01, 'h', 0x10, 0xac, 0x02}},
		{"response", &Response{Success: true, Message: "ok"}, []byte{0x08, 0x01, 0x12, 0x02, 'o', 'k'}},
		{"empty", &Response{}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.msg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	// field 7 (varint 5) and field 9 (bytes "zz") are not in the schema
	data := []byte{0x38, 0x05, 0x0a, 0x01, 'k', 0x4a, 0x02, 'z', 'z', 0x12, 0x01, 'v'}
	var item CacheItem
	require.NoError(t, Unmarshal(data, &item))
	assert.Equal(t, CacheItem{Key: "k", Value: "v"}, item)
}

func TestUnmarshal_ResetsMessage(t *testing.T) {
	resp := Response{Success: true, Message: "stale"}
	require.NoError(t, Unmarshal([]byte{0x12, 0x01, 'n'}, &resp))
	assert.Equal(t, Response{Message: "n"}, resp)
}

func TestUnmarshal_Truncated(t *testing.T) {
	var k Key
	assert.Error(t, Unmarshal([]byte{0x0a, 0x05, 'x'}, &k))
}

func TestUnmarshal_NegativePort(t *testing.T) {
	data, err := Marshal(&NodeInfo{Port: -1})
	require.NoError(t, err)
	var n NodeInfo
	require.NoError(t, Unmarshal(data, &n))
	assert.Equal(t, int32(-1), n.Port)
}

func TestCodec_IsRegisteredAndFallsBack(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)

	// generated protobuf messages still go through the protobuf runtime
	data, err := c.Marshal(wrapperspb.String("hello"))
	require.NoError(t, err)
	var out wrapperspb.StringValue
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, "hello", out.GetValue())

	data, err = c.Marshal(&Key{Key: "abc"})
	require.NoError(t, err)
	var k Key
	require.NoError(t, c.Unmarshal(data, &k))
	assert.Equal(t, "abc", k.GetKey())

	_, err = c.Marshal(struct{}{})
	assert.Error(t, err)
}

// legacyKey is an APIv1-style message: no ProtoReflect, only struct tags.
type legacyKey struct {
	Key string `protobuf:"bytes,1,opt,name=key,proto3"`
}

func (m *legacyKey) Reset()         { *m = legacyKey{} }
func (m *legacyKey) String() string { return m.Key }
func (*legacyKey) ProtoMessage()    {}

func TestCodec_LegacyMessages(t *testing.T) {
	c := encoding.GetCodec(Name)

	data, err := c.Marshal(&legacyKey{Key: "abc"})
	require.NoError(t, err)
	want, err := Marshal(&Key{Key: "abc"})
	require.NoError(t, err)
	assert.Equal(t, want, data)

	var out legacyKey
	require.NoError(t, c.Unmarshal(want, &out))
	assert.Equal(t, "abc", out.Key)
}
