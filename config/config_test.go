package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchSpecTimeouts(t *testing.T) {
	d := Defaults()
	if d.LocalDiscovery.Port != 21027 {
		t.Fatalf("local discovery port = %d, want 21027", d.LocalDiscovery.Port)
	}
	if d.LocalDiscovery.FrequencyMS != 30_000 {
		t.Fatalf("local discovery frequency = %dms, want 30000ms", d.LocalDiscovery.FrequencyMS)
	}
	if d.GlobalDiscovery.ReannounceS != 600 {
		t.Fatalf("reannounce interval = %ds, want 600s", d.GlobalDiscovery.ReannounceS)
	}
	if d.GlobalDiscovery.TimeoutMS != 3_000 {
		t.Fatalf("global discovery timeout = %dms, want 3000ms", d.GlobalDiscovery.TimeoutMS)
	}
	if d.UPnP.MaxWaitMS != 1_000 {
		t.Fatalf("upnp max wait = %dms, want 1000ms", d.UPnP.MaxWaitMS)
	}
	if d.UPnP.ExternalPort != 22001 {
		t.Fatalf("upnp external port = %d, want 22001", d.UPnP.ExternalPort)
	}
	if d.BEP.ConnectTimeoutMS != 5_000 || d.BEP.RequestTimeoutMS != 60_000 ||
		d.BEP.TxTimeoutMS != 90_000 || d.BEP.RxTimeoutMS != 300_000 {
		t.Fatalf("BEP timeouts = %+v", d.BEP)
	}
}

func TestLoadOverridesDefaultsAndKeepsOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncspirit.toml")
	contents := `
[main]
device_name = "test-node"

[local_discovery]
port = 22027
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Main.DeviceName != "test-node" {
		t.Fatalf("DeviceName = %q, want test-node", cfg.Main.DeviceName)
	}
	if cfg.LocalDiscovery.Port != 22027 {
		t.Fatalf("Port = %d, want 22027", cfg.LocalDiscovery.Port)
	}
	// Omitted fields retain their Defaults() values.
	if cfg.LocalDiscovery.FrequencyMS != 30_000 {
		t.Fatalf("FrequencyMS = %d, want default 30000", cfg.LocalDiscovery.FrequencyMS)
	}
	if cfg.GlobalDiscovery.Server != "https://discovery.syncthing.net/v2/" {
		t.Fatalf("Server = %q, want default", cfg.GlobalDiscovery.Server)
	}
}

func TestLoadRejectsUnrecognizedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncspirit.toml")
	contents := `
[main]
device_name = "test-node"
bogus_field = "oops"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unrecognized key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
