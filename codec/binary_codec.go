package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"dcf/message"
)

// BinaryCodec writes a Message as a fixed sequence of big-endian fields:
//
//	data(u32 len + bytes) sender(u16+) recipient(u16+) timestamp(i64)
//	sync(u8) sequence(u32) redundancyPath(u16+) groupID(u16+)
type BinaryCodec struct{}

var errNotMessage = errors.New("BinaryCodec: v must be *message.Message")

func (c *BinaryCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(*message.Message)
	if !ok {
		return nil, errNotMessage
	}
	for _, s := range []string{msg.Sender, msg.Recipient, msg.RedundancyPath, msg.GroupID} {
		if len(s) > math.MaxUint16 {
			return nil, fmt.Errorf("BinaryCodec: field too long (%d bytes)", len(s))
		}
	}
	if uint64(len(msg.Data)) > math.MaxUint32 {
		return nil, fmt.Errorf("BinaryCodec: payload too long (%d bytes)", len(msg.Data))
	}

	total := 4 + len(msg.Data) +
		2 + len(msg.Sender) +
		2 + len(msg.Recipient) +
		8 + 1 + 4 +
		2 + len(msg.RedundancyPath) +
		2 + len(msg.GroupID)
	buf := make([]byte, 0, total)

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(msg.Data)))
	buf = append(buf, msg.Data...)
	buf = appendShortString(buf, msg.Sender)
	buf = appendShortString(buf, msg.Recipient)
	buf = binary.BigEndian.AppendUint64(buf, uint64(msg.Timestamp))
	if msg.Sync {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint32(buf, msg.Sequence)
	buf = appendShortString(buf, msg.RedundancyPath)
	buf = appendShortString(buf, msg.GroupID)
	return buf, nil
}

func (c *BinaryCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(*message.Message)
	if !ok {
		return errNotMessage
	}

	r := reader{buf: data}
	out := message.Message{}
	out.Data = r.str(int(r.u32()))
	out.Sender = r.shortStr()
	out.Recipient = r.shortStr()
	out.Timestamp = int64(r.u64())
	out.Sync = r.u8() != 0
	out.Sequence = r.u32()
	out.RedundancyPath = r.shortStr()
	out.GroupID = r.shortStr()
	if r.err != nil {
		return r.err
	}
	if r.off != len(data) {
		return fmt.Errorf("BinaryCodec: %d trailing bytes", len(data)-r.off)
	}

	*msg = out
	return nil
}

func (c *BinaryCodec) Name() string {
	return NameBinary
}

func appendShortString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

// reader consumes data front to back; the first short read sets err and
// turns every later call into a no-op.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("BinaryCodec: truncated input at offset %d", r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) str(n int) string {
	return string(r.next(n))
}

func (r *reader) shortStr() string {
	b := r.next(2)
	if b == nil {
		return ""
	}
	return r.str(int(binary.BigEndian.Uint16(b)))
}
