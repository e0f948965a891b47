package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// snowflakeNode builds the process-wide node once, using SNOWFLAKE_NODE
// when it parses and node 1 otherwise.
func snowflakeNode() *snowflake.Node {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = n
			}
		}
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			// out of range node ids fall back to node 1
			n, _ = snowflake.NewNode(1)
		}
		node = n
	})
	return node
}

// NextID returns a time-ordered 63-bit id, unique within this process and
// across processes configured with distinct SNOWFLAKE_NODE values.
func NextID() int64 {
	return snowflakeNode().Generate().Int64()
}
