package ports

import (
	"context"

	"learnspeed/domain/learning"
)

// BaselineReader loads the baseline table into immutable records
type BaselineReader interface {
	Load(ctx context.Context) ([]learning.BaselineRecord, error)
	// Source names where the records came from, for logs and the manifest
	Source() string
}
