// Package policy implements the Policy Gate (component B, spec §4.B):
// chaos endpoint-failure injection, chaos latency, and encryption
// enforcement, backed by an injectable settings store per spec §9's
// "recast as an injected PolicyGate interface" instruction.
package policy

// SettingsStore is the key-value contract spec §6 names: "Settings store
// (consumed): key-value with get_list, get_int, set_setting".
type SettingsStore interface {
	GetList(key string) []string
	GetInt(key string) int
	SetSetting(key, value string) string
}
