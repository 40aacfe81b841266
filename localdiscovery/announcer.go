package localdiscovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Announcer periodically broadcasts this node's Announce packet to
// the LAN multicast group and listens for peers announcing themselves
// in turn.
type Announcer struct {
	log        zerolog.Logger
	conn       *net.UDPConn
	groupAddr  *net.UDPAddr
	interval   time.Duration
	deviceSHA  [32]byte
	addresses  []string
	instanceID int64

	mu      sync.Mutex
	onPeer  func(Announce, *net.UDPAddr)
}

// NewAnnouncer joins the local-discovery multicast group on the
// system-assigned multicast interface and prepares to broadcast at
// interval.
func NewAnnouncer(log zerolog.Logger, deviceSHA [32]byte, addresses []string, instanceID int64, interval time.Duration) (*Announcer, error) {
	groupAddr := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: Port}

	conn, err := net.ListenMulticastUDP("udp4", nil, groupAddr)
	if err != nil {
		return nil, fmt.Errorf("localdiscovery: join multicast group: %w", err)
	}
	conn.SetReadBuffer(1 << 16)

	return &Announcer{
		log:        log.With().Str("component", "localdiscovery").Logger(),
		conn:       conn,
		groupAddr:  groupAddr,
		interval:   interval,
		deviceSHA:  deviceSHA,
		addresses:  addresses,
		instanceID: instanceID,
	}, nil
}

// OnPeerAnnounce registers a callback invoked for every valid Announce
// packet received on the group, including this node's own looped-back
// broadcasts: Announcer does no self-filtering, so a callback that
// wants only peers must drop packets by device id and instance id
// itself.
func (a *Announcer) OnPeerAnnounce(fn func(Announce, *net.UDPAddr)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPeer = fn
}

// Run broadcasts this node's announce packet every interval and
// dispatches received packets to the registered callback, until ctx is
// canceled.
func (a *Announcer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go a.readLoop(ctx, errCh)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	if err := a.broadcastOnce(); err != nil {
		a.log.Warn().Err(err).Msg("initial announce failed")
	}

	for {
		select {
		case <-ctx.Done():
			a.conn.Close()
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-ticker.C:
			if err := a.broadcastOnce(); err != nil {
				a.log.Warn().Err(err).Msg("announce failed")
			}
		}
	}
}

func (a *Announcer) broadcastOnce() error {
	packet := MakeAnnounce(a.deviceSHA, a.addresses, a.instanceID)
	_, err := a.conn.WriteToUDP(packet, a.groupAddr)
	return err
}

func (a *Announcer) readLoop(ctx context.Context, errCh chan<- error) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		a.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case errCh <- err:
			default:
			}
			return
		}
		announce, err := ParseAnnounce(buf[:n])
		if err != nil {
			a.log.Debug().Err(err).Str("peer", addr.String()).Msg("dropping malformed announce packet")
			continue
		}
		a.mu.Lock()
		cb := a.onPeer
		a.mu.Unlock()
		if cb != nil {
			cb(announce, addr)
		}
	}
}

// Close releases the underlying multicast socket.
func (a *Announcer) Close() error {
	return a.conn.Close()
}
