package localdiscovery

import (
	"testing"

	"github.com/basiliscos/syncspirit-go/errs"
)

func TestAnnounceRoundTrip(t *testing.T) {
	var id [32]byte
	for i := range id {
		id[i] = byte(i)
	}
	addrs := []string{"tcp://192.168.100.6:22000"}

	packet := MakeAnnounce(id, addrs, 1234)
	got, err := ParseAnnounce(packet)
	if err != nil {
		t.Fatalf("ParseAnnounce: %v", err)
	}
	if got.ID != id {
		t.Fatalf("ID = %x, want %x", got.ID, id)
	}
	if len(got.Addresses) != 1 || got.Addresses[0] != addrs[0] {
		t.Fatalf("Addresses = %v, want %v", got.Addresses, addrs)
	}
	if got.InstanceID != 1234 {
		t.Fatalf("InstanceID = %d, want 1234", got.InstanceID)
	}
}

func TestAnnounceRoundTripMultipleAddresses(t *testing.T) {
	var id [32]byte
	addrs := []string{"tcp://10.0.0.1:22000", "quic://10.0.0.1:22000"}

	packet := MakeAnnounce(id, addrs, -99)
	got, err := ParseAnnounce(packet)
	if err != nil {
		t.Fatalf("ParseAnnounce: %v", err)
	}
	if len(got.Addresses) != 2 {
		t.Fatalf("Addresses = %v, want 2 entries", got.Addresses)
	}
	if got.InstanceID != -99 {
		t.Fatalf("InstanceID = %d, want -99", got.InstanceID)
	}
}

func TestParseAnnounceRejectsWrongMagic(t *testing.T) {
	packet := []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x02}
	_, err := ParseAnnounce(packet)
	if err == nil {
		t.Fatal("expected an error for a wrong magic prefix")
	}
	if errs.KindOf(err) != errs.KindWrongMagic {
		t.Fatalf("KindOf(err) = %v, want KindWrongMagic", errs.KindOf(err))
	}
}

func TestParseAnnounceRejectsTruncatedPacket(t *testing.T) {
	_, err := ParseAnnounce([]byte{0x9D, 0x79})
	if err == nil {
		t.Fatal("expected an error for a truncated packet")
	}
	if errs.KindOf(err) != errs.KindWrongMagic {
		t.Fatalf("KindOf(err) = %v, want KindWrongMagic", errs.KindOf(err))
	}
}
