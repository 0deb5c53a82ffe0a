package cmn

import "sync/atomic"

// Config is the process-wide, hot-swappable configuration snapshot that
// cmd/migratord installs in GCO, mirroring AIStore's own cmn.GCO global
// config owner (see xact/xs/tcb.go's `config = cmn.GCO.Get()`). The other
// packages take their settings as constructor arguments and do not read GCO.
type Config struct {
	Endpoints        []EndpointDescriptor `json:"endpoints"`
	TaskStorePath    string               `json:"task_store_path"`
	WorkerCount      int                  `json:"worker_count"`
	IdleSleepMS      int                  `json:"idle_sleep_ms"`
	TicksPerSecond   float64              `json:"ticks_per_second"` // 0 disables rate limiting
	LeaseTimeoutS    int                  `json:"lease_timeout_s"`
	StatusAddr       string               `json:"status_addr"`
	StatusAuthSecret string               `json:"status_auth_secret,omitempty"`
}

// globalConfigOwner is a tiny stand-in for AIStore's GCO: an atomically
// swappable pointer to the current Config, so readers never observe a
// partially-updated struct.
type globalConfigOwner struct {
	ptr atomic.Pointer[Config]
}

// GCO is the process-wide config owner.
var GCO = &globalConfigOwner{}

// Get returns the current config snapshot, or a zero-value Config if none
// has been set yet (never nil, so callers don't need a guard).
func (o *globalConfigOwner) Get() *Config {
	if c := o.ptr.Load(); c != nil {
		return c
	}
	return &Config{}
}

// Put installs a new config snapshot.
func (o *globalConfigOwner) Put(c *Config) {
	o.ptr.Store(c)
}

// Default returns a Config populated with the module's built-in defaults;
// cmd/migratord's loadConfig starts from it and overlays the JSON file.
func Default() *Config {
	return &Config{
		WorkerCount:    1,
		IdleSleepMS:    500,
		LeaseTimeoutS:  300,
		TicksPerSecond: 0,
		StatusAddr:     ":8085",
	}
}
