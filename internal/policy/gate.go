package policy

import (
	"sort"
	"strconv"
	"strings"
)

const (
	keyFailEndpoints      = "chaos_fail_endpoints"
	keyLatencyMS          = "chaos_latency_ms"
	keyEncryptionEnforced = "encryption_enforced"
)

// Gate is the Policy Gate interface the copy engine and endpoint factory
// consume. Recast from AIStore-original global process state into an
// injected interface (spec §9) so tests can substitute MemGate.
type Gate interface {
	FailedEndpoints() []string
	IsEndpointFailed(name string) bool
	AddFailedEndpoint(name string) []string
	RemoveFailedEndpoint(name string) []string
	ClearFailedEndpoints() []string

	LatencyMS() int
	SetLatencyMS(ms int) int

	EncryptionEnforced() bool
	SetEncryptionEnforced(on bool) bool
}

// store is the shared implementation both BuntGate and MemGate drive,
// parameterized only over a SettingsStore, so the chaos/encryption
// semantics (comma-joined sorted serialization of the fail set, "0"/""
// safe defaults) live in exactly one place regardless of backing store.
type store struct {
	s SettingsStore
}

func newGate(s SettingsStore) *store { return &store{s: s} }

func (g *store) FailedEndpoints() []string {
	list := g.s.GetList(keyFailEndpoints)
	out := make([]string, 0, len(list))
	for _, name := range list {
		if name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (g *store) IsEndpointFailed(name string) bool {
	for _, f := range g.FailedEndpoints() {
		if f == name {
			return true
		}
	}
	return false
}

func (g *store) mutateFailSet(mutate func(set map[string]struct{})) []string {
	set := make(map[string]struct{})
	for _, name := range g.FailedEndpoints() {
		set[name] = struct{}{}
	}
	mutate(set)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	g.s.SetSetting(keyFailEndpoints, strings.Join(names, ","))
	return names
}

func (g *store) AddFailedEndpoint(name string) []string {
	return g.mutateFailSet(func(set map[string]struct{}) { set[name] = struct{}{} })
}

func (g *store) RemoveFailedEndpoint(name string) []string {
	return g.mutateFailSet(func(set map[string]struct{}) { delete(set, name) })
}

func (g *store) ClearFailedEndpoints() []string {
	g.s.SetSetting(keyFailEndpoints, "")
	return []string{}
}

func (g *store) LatencyMS() int {
	return g.s.GetInt(keyLatencyMS)
}

func (g *store) SetLatencyMS(ms int) int {
	g.s.SetSetting(keyLatencyMS, strconv.Itoa(ms))
	return ms
}

func (g *store) EncryptionEnforced() bool {
	return g.s.GetInt(keyEncryptionEnforced) != 0
}

func (g *store) SetEncryptionEnforced(on bool) bool {
	v := "0"
	if on {
		v = "1"
	}
	g.s.SetSetting(keyEncryptionEnforced, v)
	return on
}
