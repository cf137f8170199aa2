package codec

import (
	"testing"

	"dcf/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullMessage() *message.Message {
	return &message.Message{
		Data:           "hello\x00\n世界",
		Sender:         "node-a",
		Recipient:      "node-b",
		Timestamp:      1718000000123,
		Sync:           true,
		Sequence:       42,
		RedundancyPath: "a>b",
		GroupID:        "g1",
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	for _, name := range []string{NameJSON, NameBinary} {
		t.Run(name, func(t *testing.T) {
			cdc, err := Get(name)
			require.NoError(t, err)
			assert.Equal(t, name, cdc.Name())

			for _, original := range []*message.Message{fullMessage(), {}, message.New("")} {
				data, err := cdc.Marshal(original)
				require.NoError(t, err)

				var decoded message.Message
				require.NoError(t, cdc.Unmarshal(data, &decoded))
				assert.Equal(t, *original, decoded)
			}
		})
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("proto3")
	assert.Error(t, err)
}

func TestBinaryCodecRejectsForeignTypes(t *testing.T) {
	cdc := &BinaryCodec{}

	_, err := cdc.Marshal("not a message")
	assert.ErrorIs(t, err, errNotMessage)

	var s string
	assert.ErrorIs(t, cdc.Unmarshal([]byte{0, 0, 0, 0}, &s), errNotMessage)
}

func TestBinaryCodecTruncated(t *testing.T) {
	cdc := &BinaryCodec{}
	data, err := cdc.Marshal(fullMessage())
	require.NoError(t, err)

	for _, n := range []int{0, 3, 10, len(data) - 1} {
		var decoded message.Message
		err := cdc.Unmarshal(data[:n], &decoded)
		assert.Error(t, err, "prefix of %d bytes", n)
		assert.Equal(t, message.Message{}, decoded, "target must stay untouched on error")
	}
}

func TestJSONCodecRejectsInvalidUTF8(t *testing.T) {
	cdc := &JSONCodec{}

	for _, msg := range []*message.Message{
		message.New("\xff\xfebin"),
		{Data: "ok", Sender: "node-\xc0"},
		{Data: "ok", GroupID: "\xed\xa0\x80"},
	} {
		_, err := cdc.Marshal(msg)
		assert.ErrorIs(t, err, errInvalidUTF8, "%q", msg)
	}

	var decoded message.Message
	err := cdc.Unmarshal([]byte("{\"data\":\"\xff\xfe\"}"), &decoded)
	assert.ErrorIs(t, err, errInvalidUTF8)
	assert.Equal(t, message.Message{}, decoded)
}

func TestBinaryCodecKeepsArbitraryBytes(t *testing.T) {
	cdc := &BinaryCodec{}
	data, err := cdc.Marshal(message.New("\xff\xfebin"))
	require.NoError(t, err)

	var decoded message.Message
	require.NoError(t, cdc.Unmarshal(data, &decoded))
	assert.Equal(t, "\xff\xfebin", decoded.Data)
}

func TestBinaryCodecTrailingBytes(t *testing.T) {
	cdc := &BinaryCodec{}
	data, err := cdc.Marshal(message.New("x"))
	require.NoError(t, err)

	var decoded message.Message
	assert.Error(t, cdc.Unmarshal(append(data, 0xff), &decoded))
}

func BenchmarkCodecJSON(b *testing.B) {
	benchmarkCodec(b, &JSONCodec{})
}

func BenchmarkCodecBinary(b *testing.B) {
	benchmarkCodec(b, &BinaryCodec{})
}

func benchmarkCodec(b *testing.B, cdc Codec) {
	msg := fullMessage()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, _ := cdc.Marshal(msg)
		var out message.Message
		cdc.Unmarshal(data, &out)
	}
}
