// Package eventid generates time-ordered IDs for streamed events.
package eventid

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node    *snowflake.Node
	once    sync.Once
	initErr error
)

// Init initializes the Snowflake node with the given node ID (0-1023).
// Only the first call takes effect.
func Init(nodeID int64) error {
	once.Do(func() {
		node, initErr = snowflake.NewNode(nodeID)
	})
	return initErr
}

// New generates a new time-ordered ID. Without a prior Init it uses node 0.
func New() snowflake.ID {
	if err := Init(0); err != nil {
		panic(fmt.Sprintf("eventid: node not initialized: %v", err))
	}
	return node.Generate()
}

// NewString is New in its decimal string form, as sent in SSE "id:" fields.
func NewString() string {
	return New().String()
}
