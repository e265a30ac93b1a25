package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ObjectID generates 24-byte time-prefixed ids rendered as 48 hex chars.
// The layout is timestamp(6) | node(5) | pid(2) | counter(3) | random(8),
// which keeps ids sortable by creation time while remaining unguessable
// enough to use as opaque tokens.
type ObjectID struct {
	node    [5]byte
	pid     uint16
	counter uint32
}

// NewObjectID creates a generator bound to a stable node identity and a
// randomly seeded counter.
func NewObjectID() (*ObjectID, error) {
	g := &ObjectID{pid: uint16(os.Getpid())}

	sum := sha256.Sum256([]byte(stableIdentity()))
	copy(g.node[:], sum[:5])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter = uint32(seed[0])<<24 | uint32(seed[1])<<16 | uint32(seed[2])<<8 | uint32(seed[3])

	return g, nil
}

// Generate returns the next id as a 48-char hex string.
func (g *ObjectID) Generate() string {
	var raw [24]byte

	ts := uint64(time.Now().UnixMilli())
	for i := 0; i < 6; i++ {
		raw[i] = byte(ts >> (40 - 8*i))
	}

	copy(raw[6:11], g.node[:])

	raw[11] = byte(g.pid >> 8)
	raw[12] = byte(g.pid)

	c := atomic.AddUint32(&g.counter, 1)
	raw[13] = byte(c >> 16)
	raw[14] = byte(c >> 8)
	raw[15] = byte(c)

	if _, err := rand.Read(raw[16:]); err != nil {
		sum := sha256.Sum256(raw[:16])
		copy(raw[16:], sum[:8])
	}

	return hex.EncodeToString(raw[:])
}

// stableIdentity returns a machine identity string, preferring
// /etc/machine-id and falling back to the hostname. An empty string is
// acceptable: it just collapses all nodes onto the same node bytes.
func stableIdentity() string {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s
		}
	}
	if h, err := os.Hostname(); err == nil {
		return strings.TrimSpace(h)
	}
	return ""
}
