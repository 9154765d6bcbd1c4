package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// SetSnowflakeNode configures the node used by NewID. It must be called before
// the first ID is generated to take effect for the whole process.
func SetSnowflakeNode(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewID returns a time-ordered snowflake ID. Without SetSnowflakeNode it
// uses node 1.
func NewID() int64 {
	nodeMu.Lock()
	if node == nil {
		// node 1 is always within range
		node, _ = snowflake.NewNode(1)
	}
	n := node
	nodeMu.Unlock()
	return n.Generate().Int64()
}
