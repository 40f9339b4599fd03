package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex characters, enough for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// CohortHash fingerprints the loaded input table
type CohortHash Hash

func (h CohortHash) String() string { return Hash(h).String() }

// ComputeCohortHash hashes entity IDs with their group labels and baseline
// scores. Row order is part of the identity of a cohort, so the input is
// not sorted.
func ComputeCohortHash(entityIDs []string, labels []string, scores [][]float64) CohortHash {
	var data strings.Builder
	for i, id := range entityIDs {
		data.WriteString(id)
		data.WriteByte('|')
		if i < len(labels) {
			data.WriteString(labels[i])
		}
		if i < len(scores) {
			for _, s := range scores[i] {
				data.WriteString(fmt.Sprintf("|%v", s))
			}
		}
		data.WriteByte('\n')
	}
	return CohortHash(NewHash([]byte(data.String())))
}
