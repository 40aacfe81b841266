// Command syncspiritd is a thin demonstration entry point wiring
// identity generation, UPnP external-address lookup and LAN
// announcement together. It does not use global discovery and does
// not install a UPnP port mapping. Interactive CLI dispatch and on-disk index
// management are out of the core's scope; this binary exists to show
// the wiring, not to be a full sync client.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/basiliscos/syncspirit-go/config"
	"github.com/basiliscos/syncspirit-go/identity"
	"github.com/basiliscos/syncspirit-go/identity/tlsutil"
	"github.com/basiliscos/syncspirit-go/localdiscovery"
	"github.com/basiliscos/syncspirit-go/upnp"
)

var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a syncspirit.toml config file")
	certPath := pflag.String("cert", "cert.pem", "device certificate path")
	keyPath := pflag.String("key", "key.pem", "device private key path")
	logLevel := pflag.String("log-level", "", "override the configured log level (trace|debug|info|warn|error)")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("syncspiritd %s\n", version)
		return
	}

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "syncspiritd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := newLogger(cfg.Log.Level)

	pair, err := loadOrGenerateIdentity(*certPath, *keyPath, cfg.Main.DeviceName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to establish device identity")
	}
	deviceID := identity.FromCert(pair.CertDER)
	logger.Info().Str("device_id", deviceID.String()).Msg("device identity ready")

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	externalAddr := mapExternalPort(ctx, cfg, logger)
	addresses := []string{fmt.Sprintf("tcp://0.0.0.0:%d", cfg.UPnP.ExternalPort)}
	if externalAddr != "" {
		addresses = append(addresses, externalAddr)
	}

	if cfg.LocalDiscovery.Enabled {
		runLocalAnnouncer(ctx, cfg, deviceID, addresses, logger)
	}

	<-ctx.Done()
}

func newLogger(level string) zerolog.Logger {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(l).
		With().Timestamp().Logger()
}

func loadOrGenerateIdentity(certPath, keyPath, deviceName string, logger zerolog.Logger) (*tlsutil.KeyPair, error) {
	if pair, err := tlsutil.LoadPair(certPath, keyPath); err == nil {
		logger.Info().Str("cert", certPath).Msg("loaded existing device identity")
		return pair, nil
	}

	logger.Info().Msg("generating a new device identity")
	pair, err := tlsutil.GeneratePair(deviceName)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := pair.Save(certPath, keyPath); err != nil {
		logger.Warn().Err(err).Msg("failed to persist new device identity")
	}
	return pair, nil
}

func mapExternalPort(ctx context.Context, cfg config.Config, logger zerolog.Logger) string {
	if !cfg.UPnP.Enabled {
		return ""
	}

	client := upnp.NewClient(logger)
	discoverCtx, cancel := context.WithTimeout(ctx, cfg.UPnP.MaxWait()+time.Second)
	defer cancel()

	result, err := client.Discover(discoverCtx, cfg.UPnP.MaxWait())
	if err != nil {
		logger.Warn().Err(err).Msg("UPnP discovery failed, continuing without port mapping")
		return ""
	}

	wan, err := client.FetchDescription(ctx, result.Location)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch UPnP device description")
		return ""
	}

	ip, err := client.GetExternalIPAddress(ctx, wan.ControlURL)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read external IP address")
		return ""
	}

	// No AddPortMapping request is sent: that needs an internal client
	// address per listening interface, and this demo entry point does
	// not bind a real listener. The returned address only pairs the
	// gateway's external IP with the configured external port.
	return fmt.Sprintf("tcp://%s:%d", ip, cfg.UPnP.ExternalPort)
}

func runLocalAnnouncer(ctx context.Context, cfg config.Config, deviceID identity.DeviceID, addresses []string, logger zerolog.Logger) {
	announcer, err := localdiscovery.NewAnnouncer(logger, deviceID.SHA256(), addresses, time.Now().UnixNano(), cfg.LocalDiscovery.Frequency())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to start local announcer")
		return
	}
	announcer.OnPeerAnnounce(func(a localdiscovery.Announce, from *net.UDPAddr) {
		logger.Info().Str("peer", from.String()).Msg("observed peer announce")
	})
	go func() {
		if err := announcer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("local announcer stopped")
		}
	}()
}
