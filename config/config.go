// Package config parses the bridge's INI configuration file (C11): one
// [instance_management] section for global settings, and a family of
// per-instance sections keyed "<id>:<setting>" for device selection,
// clocking and whitelist entries.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/anshi233/xvc-server-d2xx/whitelist"
)

const (
	// DefaultBasePort is the TCP port of instance 1; instance N listens
	// on BasePort+N-1 unless overridden.
	DefaultBasePort = 2542
	// DefaultFrequency is the TCK rate new instances start at, the MPSSE
	// engine's maximum.
	DefaultFrequency = 30000000
	// DefaultMaxVectorSize is the XVC max vector size reported to
	// clients, in bytes.
	DefaultMaxVectorSize = 4096
	// MaxInstances bounds how many devices a single process manages.
	MaxInstances = 32
)

// DeviceIDType distinguishes how an instance's device selector string is
// interpreted.
type DeviceIDType int

const (
	DeviceIDNone DeviceIDType = iota
	DeviceIDSerial
	DeviceIDBus
	DeviceIDCustom
	DeviceIDAuto
)

// DeviceID identifies which physical adapter an instance should open.
type DeviceID struct {
	Type  DeviceIDType
	Value string
}

// ParseDeviceID parses the device-mapping value in an
// [instance_mappings] entry: "SN:<serial>", "BUS:<bus>", "CUSTOM:<name>"
// or "auto".
func ParseDeviceID(s string) (DeviceID, error) {
	switch {
	case strings.HasPrefix(s, "SN:"):
		return DeviceID{Type: DeviceIDSerial, Value: s[3:]}, nil
	case strings.HasPrefix(s, "BUS:"):
		return DeviceID{Type: DeviceIDBus, Value: s[4:]}, nil
	case strings.HasPrefix(s, "CUSTOM:"):
		return DeviceID{Type: DeviceIDCustom, Value: s[7:]}, nil
	case s == "auto":
		return DeviceID{Type: DeviceIDAuto}, nil
	default:
		return DeviceID{}, fmt.Errorf("config: invalid device id %q", s)
	}
}

func (d DeviceID) String() string {
	switch d.Type {
	case DeviceIDSerial:
		return "SN:" + d.Value
	case DeviceIDBus:
		return "BUS:" + d.Value
	case DeviceIDCustom:
		return "CUSTOM:" + d.Value
	case DeviceIDAuto:
		return "auto"
	default:
		return "none"
	}
}

// Instance is one device's complete configuration.
type Instance struct {
	ID            int
	Port          int
	DeviceID      DeviceID
	Alias         string
	Enabled       bool
	Frequency     uint32
	LatencyTimer  int
	Async         bool
	MaxVectorSize int

	WhitelistMode    whitelist.Mode
	WhitelistEntries []string // "!" prefix marks a block entry, see whitelist.New
}

// Global is the complete parsed configuration: process-wide settings
// plus every configured instance, in ascending instance-ID order.
type Global struct {
	InstanceMgmtEnabled bool
	BasePort            int
	MaxInstances        int
	LogLevel            string

	Instances []Instance
}

func defaultInstance(id, basePort int) Instance {
	return Instance{
		ID:            id,
		Port:          basePort + id - 1,
		Frequency:     DefaultFrequency,
		LatencyTimer:  2,
		MaxVectorSize: DefaultMaxVectorSize,
		WhitelistMode: whitelist.Off,
	}
}

// Load reads and parses the INI file at path.
func Load(path string) (*Global, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	g := &Global{
		InstanceMgmtEnabled: true,
		BasePort:            DefaultBasePort,
		MaxInstances:        MaxInstances,
		LogLevel:            "info",
	}

	byID := map[int]*Instance{}
	order := []int{}
	get := func(id int) *Instance {
		if inst, ok := byID[id]; ok {
			return inst
		}
		inst := defaultInstance(id, g.BasePort)
		byID[id] = &inst
		order = append(order, id)
		return &inst
	}

	if sec, err := f.GetSection("instance_management"); err == nil {
		g.InstanceMgmtEnabled = sec.Key("enabled").MustBool(true)
		g.BasePort = sec.Key("base_port").MustInt(DefaultBasePort)
		g.MaxInstances = sec.Key("max_instances").MustInt(MaxInstances)
	}

	if sec, err := f.GetSection("instance_mappings"); err == nil {
		for _, key := range sec.Keys() {
			id, err := strconv.Atoi(key.Name())
			if err != nil || id < 1 || id > MaxInstances {
				continue
			}
			did, err := ParseDeviceID(key.String())
			if err != nil {
				return nil, fmt.Errorf("config: instance %d: %w", id, err)
			}
			inst := get(id)
			inst.Enabled = true
			inst.DeviceID = did
			byID[id] = inst
		}
	}

	if sec, err := f.GetSection("instance_settings"); err == nil {
		for _, key := range sec.Keys() {
			id, setting, ok := splitIDSetting(key.Name())
			if !ok {
				continue
			}
			inst := get(id)
			switch setting {
			case "frequency":
				inst.Frequency = uint32(key.MustUint64(uint64(DefaultFrequency)))
			case "latency_timer":
				inst.LatencyTimer = key.MustInt(2)
			case "async":
				inst.Async = key.MustBool(false)
			case "max_vector_size":
				inst.MaxVectorSize = key.MustInt(DefaultMaxVectorSize)
			}
			byID[id] = inst
		}
	}

	if sec, err := f.GetSection("instance_aliases"); err == nil {
		for _, key := range sec.Keys() {
			id, err := strconv.Atoi(key.Name())
			if err != nil {
				continue
			}
			inst := get(id)
			inst.Alias = key.String()
			byID[id] = inst
		}
	}

	if sec, err := f.GetSection("ip_whitelist_per_instance"); err == nil {
		for _, key := range sec.Keys() {
			id, setting, ok := splitIDSetting(key.Name())
			if !ok {
				continue
			}
			inst := get(id)
			switch {
			case setting == "mode":
				mode, err := whitelist.ParseMode(key.String())
				if err != nil {
					return nil, fmt.Errorf("config: instance %d: %w", id, err)
				}
				inst.WhitelistMode = mode
			case strings.HasPrefix(setting, "allow_"):
				inst.WhitelistEntries = append(inst.WhitelistEntries, key.String())
			case strings.HasPrefix(setting, "block_"):
				inst.WhitelistEntries = append(inst.WhitelistEntries, "!"+key.String())
			}
			byID[id] = inst
		}
	}

	sort.Ints(order)
	for _, id := range order {
		g.Instances = append(g.Instances, *byID[id])
	}
	return g, nil
}

// splitIDSetting splits a "<id>:<setting>" key name, as used by the
// instance_settings and ip_whitelist_per_instance sections.
func splitIDSetting(name string) (id int, setting string, ok bool) {
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return 0, "", false
	}
	id, err := strconv.Atoi(name[:i])
	if err != nil || id < 1 || id > MaxInstances {
		return 0, "", false
	}
	return id, name[i+1:], true
}
