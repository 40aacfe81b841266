// Package bep implements the Block Exchange Protocol's binary framing:
// a magic-prefixed Hello handshake followed by length-prefixed,
// optionally LZ4-compressed header+body frames for every other message
// type. Parse is a pure function of its input slice; it never blocks
// and never buffers a partial frame, per the streaming design the
// specification requires: a zero consumed count means "come back with
// more bytes", not an error.
package bep

import (
	"encoding/binary"
	"fmt"

	"github.com/basiliscos/syncspirit-go/bep/wire"
	"github.com/basiliscos/syncspirit-go/errs"
	"github.com/pierrec/lz4/v4"
)

// helloMagic prefixes the very first frame on a connection.
const helloMagic = 0x2EA7D90B

// Compression selects how a non-Hello frame's body is encoded.
type Compression int32

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
)

// header is the small envelope in front of every non-Hello message
// body: which variant follows, and whether its bytes are LZ4-framed.
type header struct {
	Type        MessageType
	Compression Compression
}

func (h header) marshal() []byte {
	var w wire.Writer
	w.Int32(1, int32(h.Type))
	w.Int32(2, int32(h.Compression))
	return w.Bytes()
}

func unmarshalHeader(data []byte) (header, error) {
	var h header
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return header{}, err
		}
		switch field {
		case 1:
			v, err := r.Varint()
			if err != nil {
				return header{}, err
			}
			h.Type = MessageType(v)
		case 2:
			v, err := r.Varint()
			if err != nil {
				return header{}, err
			}
			h.Compression = Compression(v)
		default:
			if err := r.Skip(wt); err != nil {
				return header{}, err
			}
		}
	}
	return h, nil
}

// WrappedMessage is one parsed frame: its payload and the compression
// mode it arrived under (CompressionNone for a Hello frame).
type WrappedMessage struct {
	Message     Message
	Compression Compression
}

// Parse attempts to decode exactly one frame from the front of data.
// On success it returns the decoded message and the number of bytes
// consumed (always > 0). When data holds a proper, non-empty prefix of
// a frame but not the whole thing, it returns a zero WrappedMessage,
// consumed == 0, and a nil error: the caller should read more bytes
// and retry. Any other condition is a malformed frame and returns a
// non-nil *errs.Error.
func Parse(data []byte) (WrappedMessage, int, error) {
	const op = "bep.Parse"

	if len(data) < 4 {
		return WrappedMessage{}, 0, nil
	}

	magic := binary.BigEndian.Uint32(data[0:4])
	if magic == helloMagic {
		return parseHello(data)
	}

	return parseFramed(data)
}

func parseHello(data []byte) (WrappedMessage, int, error) {
	const op = "bep.parseHello"

	if len(data) < 6 {
		return WrappedMessage{}, 0, nil
	}
	msgLen := int(binary.BigEndian.Uint16(data[4:6]))
	total := 6 + msgLen
	if len(data) < total {
		return WrappedMessage{}, 0, nil
	}

	h, err := unmarshalHello(data[6:total])
	if err != nil {
		return WrappedMessage{}, 0, errs.New(op, errs.KindProtobufErr, err)
	}
	return WrappedMessage{Message: *h, Compression: CompressionNone}, total, nil
}

func parseFramed(data []byte) (WrappedMessage, int, error) {
	const op = "bep.parseFramed"

	if len(data) < 2 {
		return WrappedMessage{}, 0, nil
	}
	headerLen := int(binary.BigEndian.Uint16(data[0:2]))
	headerEnd := 2 + headerLen
	if len(data) < headerEnd {
		return WrappedMessage{}, 0, nil
	}
	h, err := unmarshalHeader(data[2:headerEnd])
	if err != nil {
		return WrappedMessage{}, 0, errs.New(op, errs.KindProtobufErr, err)
	}

	if len(data) < headerEnd+4 {
		return WrappedMessage{}, 0, nil
	}
	bodyLen := int(binary.BigEndian.Uint32(data[headerEnd : headerEnd+4]))
	bodyStart := headerEnd + 4
	bodyEnd := bodyStart + bodyLen
	if len(data) < bodyEnd {
		return WrappedMessage{}, 0, nil
	}
	body := data[bodyStart:bodyEnd]

	var payload []byte
	switch h.Compression {
	case CompressionNone:
		payload = body
	case CompressionLZ4:
		payload, err = decompressLZ4(body)
		if err != nil {
			return WrappedMessage{}, 0, errs.New(op, errs.KindLz4Decoding, err)
		}
	default:
		return WrappedMessage{}, 0, errs.New(op, errs.KindUnexpectedMessage, fmt.Errorf("unknown compression mode %d", h.Compression))
	}

	msg, err := unmarshalByType(h.Type, payload)
	if err != nil {
		return WrappedMessage{}, 0, err
	}
	return WrappedMessage{Message: msg, Compression: h.Compression}, bodyEnd, nil
}

// decompressLZ4 unframes an LZ4 block preceded by its 4-byte
// big-endian uncompressed size, matching the wire's body layout.
func decompressLZ4(block []byte) ([]byte, error) {
	if len(block) < 4 {
		return nil, fmt.Errorf("lz4 block too short for size prefix")
	}
	uncompressedSize := int(binary.BigEndian.Uint32(block[0:4]))
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(block[4:], dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// compressLZ4 produces the 4-byte size-prefixed LZ4 block form used on
// the wire.
func compressLZ4(src []byte) ([]byte, error) {
	var c lz4.Compressor
	buf := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input: CompressBlock reports this by
		// returning 0. Fall back to storing it raw is not an
		// option on the wire, so surface the error to the caller
		// instead of silently corrupting the stream.
		return nil, fmt.Errorf("lz4: block not compressible")
	}
	out := make([]byte, 4+n)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(src)))
	copy(out[4:], buf[:n])
	return out, nil
}

// Serialize encodes msg as a wire frame. Hello is always sent
// uncompressed in its magic-prefixed form; compression is ignored for
// it. Every other variant is wrapped in a header naming its type and
// compression mode.
func Serialize(msg Message, compression Compression) ([]byte, error) {
	const op = "bep.Serialize"

	if h, ok := msg.(Hello); ok {
		body := h.marshal()
		out := make([]byte, 6+len(body))
		binary.BigEndian.PutUint32(out[0:4], helloMagic)
		binary.BigEndian.PutUint16(out[4:6], uint16(len(body)))
		copy(out[6:], body)
		return out, nil
	}

	payload := msg.marshal()
	var body []byte
	var err error
	switch compression {
	case CompressionNone:
		body = payload
	case CompressionLZ4:
		body, err = compressLZ4(payload)
		if err != nil {
			return nil, errs.New(op, errs.KindLz4Decoding, err)
		}
	default:
		return nil, errs.New(op, errs.KindUnexpectedMessage, fmt.Errorf("unknown compression mode %d", compression))
	}

	h := header{Type: msg.bepType(), Compression: compression}
	headerBytes := h.marshal()

	out := make([]byte, 0, 2+len(headerBytes)+4+len(body))
	var lenBuf [4]byte
	binary.BigEndian.PutUint16(lenBuf[:2], uint16(len(headerBytes)))
	out = append(out, lenBuf[:2]...)
	out = append(out, headerBytes...)
	binary.BigEndian.PutUint32(lenBuf[:4], uint32(len(body)))
	out = append(out, lenBuf[:4]...)
	out = append(out, body...)
	return out, nil
}
