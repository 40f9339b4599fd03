package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// entityNamespace scopes name-based entity IDs so they never collide with
// IDs minted for other purposes.
var entityNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("learnspeed/entity"))

// EntityID identifies one baseline record for the lifetime of a run.
// It is derived from the row ordinal, so loading the same table twice
// yields the same IDs.
type EntityID ID

// NewEntityID returns the deterministic identifier for the row at ordinal.
func NewEntityID(ordinal int) EntityID {
	id := uuid.NewSHA1(entityNamespace, []byte(strconv.Itoa(ordinal)))
	return EntityID(id.String())
}

// String returns the string representation
func (id EntityID) String() string { return ID(id).String() }

// IsEmpty checks if the entity ID is empty
func (id EntityID) IsEmpty() bool { return ID(id).IsEmpty() }

// RunID identifies a single pipeline execution
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
