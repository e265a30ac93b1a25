package uid

import (
	"crypto/sha256"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 ids.
//
// The node id is derived from a stable machine identity so replicas do not
// collide without requiring explicit node assignment.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a Snowflake generator with a derived node id.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeIdentity())
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// nodeIdentity maps machine-id (or hostname) onto the 10-bit node space.
func nodeIdentity() int64 {
	src := ""
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		src = strings.TrimSpace(string(b))
	}
	if src == "" {
		if h, err := os.Hostname(); err == nil {
			src = strings.TrimSpace(h)
		}
	}

	sum := sha256.Sum256([]byte(src))
	return int64(sum[0])<<2 | int64(sum[1]&0x03)
}
