package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anshi233/xvc-server-d2xx/whitelist"
)

const sampleINI = `
[instance_management]
enabled = true
base_port = 2542
max_instances = 8

[instance_mappings]
1 = SN:ABC12345
2 = auto

[instance_settings]
1:frequency = 15000000
1:latency_timer = 1
1:async = true
2:max_vector_size = 65536

[instance_aliases]
1 = bench-a

[ip_whitelist_per_instance]
1:mode = strict
1:allow_0 = 192.168.1.0/24
1:block_0 = 192.168.1.50
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xvcd.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesGlobalSettings(t *testing.T) {
	g, err := Load(writeTemp(t, sampleINI))
	if err != nil {
		t.Fatal(err)
	}
	if !g.InstanceMgmtEnabled || g.BasePort != 2542 || g.MaxInstances != 8 {
		t.Fatalf("got %+v", g)
	}
}

func TestLoadParsesInstanceMapping(t *testing.T) {
	g, err := Load(writeTemp(t, sampleINI))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(g.Instances))
	}
	inst1 := g.Instances[0]
	if !inst1.Enabled || inst1.DeviceID.Type != DeviceIDSerial || inst1.DeviceID.Value != "ABC12345" {
		t.Fatalf("got %+v", inst1.DeviceID)
	}
	inst2 := g.Instances[1]
	if inst2.DeviceID.Type != DeviceIDAuto {
		t.Fatalf("got %+v", inst2.DeviceID)
	}
}

func TestLoadParsesPerInstanceSettings(t *testing.T) {
	g, err := Load(writeTemp(t, sampleINI))
	if err != nil {
		t.Fatal(err)
	}
	inst1 := g.Instances[0]
	if inst1.Frequency != 15000000 || inst1.LatencyTimer != 1 || !inst1.Async {
		t.Fatalf("got %+v", inst1)
	}
	if inst1.Alias != "bench-a" {
		t.Fatalf("got alias %q", inst1.Alias)
	}
	inst2 := g.Instances[1]
	if inst2.MaxVectorSize != 65536 {
		t.Fatalf("got max vector size %d", inst2.MaxVectorSize)
	}
}

func TestLoadParsesWhitelist(t *testing.T) {
	g, err := Load(writeTemp(t, sampleINI))
	if err != nil {
		t.Fatal(err)
	}
	inst1 := g.Instances[0]
	if inst1.WhitelistMode != whitelist.Strict {
		t.Fatalf("got mode %v", inst1.WhitelistMode)
	}
	pol, err := whitelist.New(inst1.WhitelistMode, inst1.WhitelistEntries)
	if err != nil {
		t.Fatal(err)
	}
	_ = pol
}

func TestDeviceIDRoundTrip(t *testing.T) {
	for _, s := range []string{"SN:ABC", "BUS:001-002", "CUSTOM:bench", "auto"} {
		did, err := ParseDeviceID(s)
		if err != nil {
			t.Fatalf("ParseDeviceID(%q): %s", s, err)
		}
		if did.String() != s {
			t.Fatalf("got %q, want %q", did.String(), s)
		}
	}
	if _, err := ParseDeviceID("garbage"); err == nil {
		t.Fatal("expected an error for an unrecognized device id")
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
