package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// SnowflakeSource hands out time-ordered snowflake ID strings from a single node.
// The node is created once; creating a node per ID would reset the sequence
// counter and allow duplicates within the same millisecond.
type SnowflakeSource struct {
	once   sync.Once
	nodeID int64
	node   *snowflake.Node
}

// NewSnowflakeSource prepares a source for nodeID (0..1023).
func NewSnowflakeSource(nodeID int64) *SnowflakeSource {
	return &SnowflakeSource{nodeID: nodeID}
}

// NewID returns the next snowflake ID. If the node cannot be initialized
// (out-of-range node id) it falls back to a KSUID string.
func (s *SnowflakeSource) NewID() string {
	s.once.Do(func() {
		node, err := snowflake.NewNode(s.nodeID)
		if err == nil {
			s.node = node
		}
	})
	if s.node == nil {
		return NewKSUID()
	}
	return s.node.Generate().String()
}
