// Package localdiscovery implements the LAN multicast announce used
// to find peers on the same network segment: a magic-prefixed packet
// naming a device id, its reachable addresses, and an instance id,
// broadcast periodically over UDP. The frame shape mirrors bep's own
// magic+payload convention; the UDP framing itself follows the pack's
// CG-8663-shadowmesh style of an explicit frame-type prefix in front
// of a length-delimited payload.
package localdiscovery

import (
	"encoding/binary"
	"fmt"

	"github.com/basiliscos/syncspirit-go/bep/wire"
	"github.com/basiliscos/syncspirit-go/errs"
)

// announceMagic prefixes every local-discovery packet.
const announceMagic = 0x9D79BC39

// MulticastGroup and Port are the LAN discovery group/port this
// package uses. NewAnnouncer always joins and sends to this group and
// port; it takes no parameter to override either.
const (
	MulticastGroup = "239.255.255.71"
	Port           = 21027
)

// Announce is one device's self-published reachability record.
type Announce struct {
	ID         [32]byte
	Addresses  []string
	InstanceID int64
}

// MakeAnnounce encodes an Announce packet: 4-byte magic followed by
// the protobuf-wire payload.
func MakeAnnounce(deviceSHA [32]byte, addresses []string, instanceID int64) []byte {
	var w wire.Writer
	w.BytesField(1, deviceSHA[:])
	for _, a := range addresses {
		w.String(2, a)
	}
	w.Int64(3, instanceID)
	payload := w.Bytes()

	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[0:4], announceMagic)
	copy(out[4:], payload)
	return out
}

// ParseAnnounce verifies the magic prefix and decodes the payload.
// A bad magic fails with KindWrongMagic; a malformed payload fails
// with KindProtobufErr.
func ParseAnnounce(data []byte) (Announce, error) {
	const op = "localdiscovery.ParseAnnounce"

	if len(data) < 4 {
		return Announce{}, errs.New(op, errs.KindWrongMagic, fmt.Errorf("packet shorter than magic prefix"))
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	if magic != announceMagic {
		return Announce{}, errs.New(op, errs.KindWrongMagic, fmt.Errorf("got magic %#x", magic))
	}

	var a Announce
	r := wire.NewReader(data[4:])
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return Announce{}, errs.New(op, errs.KindProtobufErr, err)
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return Announce{}, errs.New(op, errs.KindProtobufErr, err)
			}
			if len(b) != 32 {
				return Announce{}, errs.New(op, errs.KindProtobufErr, fmt.Errorf("device id must be 32 bytes, got %d", len(b)))
			}
			copy(a.ID[:], b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return Announce{}, errs.New(op, errs.KindProtobufErr, err)
			}
			a.Addresses = append(a.Addresses, string(b))
		case 3:
			v, err := r.Varint()
			if err != nil {
				return Announce{}, errs.New(op, errs.KindProtobufErr, err)
			}
			a.InstanceID = int64(v)
		default:
			if err := r.Skip(wt); err != nil {
				return Announce{}, errs.New(op, errs.KindProtobufErr, err)
			}
		}
	}
	return a, nil
}
