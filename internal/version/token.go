// Package version mints the fresh, random version tokens written to
// FileMeta on every successful copy (spec §3, §4.D step 10).
package version

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// counter guarantees two tokens minted in the same process for the same
// key still differ even if crypto/rand ever produced identical entropy.
var counter uint64

// New mints a 32-hex-character token for the given object key. It is
// deliberately not derived from the source ETag: downstream readers use it
// to detect new versions independently of endpoint-assigned ETags, which
// some providers rewrite on copy (spec §4.D rationale).
func New(key string) string {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to the counter alone so callers never panic
		// here, trading a weaker token for availability.
		binary.BigEndian.PutUint64(seed[:8], atomic.AddUint64(&counter, 1))
	}

	h, _ := blake2b.New(16, nil) // blake2b-128: 16-byte digest -> 32 hex chars
	_, _ = h.Write(seed[:])
	_, _ = h.Write([]byte(key))
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], atomic.AddUint64(&counter, 1))
	_, _ = h.Write(ctr[:])
	return hex.EncodeToString(h.Sum(nil))
}
