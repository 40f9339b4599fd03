package run

import (
	"encoding/json"
	"fmt"
	"os"

	"learnspeed/domain/core"
	"learnspeed/domain/stage"
)

// CodeVersion is recorded in every manifest
const CodeVersion = "v0.3.0"

// Manifest represents the complete record of a run.
// It carries what is needed to replay the run and to check that a replay
// reproduced it.
type Manifest struct {
	RunID             core.RunID          `json:"run_id"`
	InputFile         string              `json:"input_file"`
	EntityCount       int                 `json:"entity_count"`
	Seed              int64               `json:"seed"`
	Fingerprint       RunFingerprint      `json:"fingerprint"`
	OutputFingerprint core.Hash           `json:"output_fingerprint"`
	Stages            []stage.StageResult `json:"stages"`
	Outputs           map[string]string   `json:"outputs,omitempty"`
	CreatedAt         core.Timestamp      `json:"created_at"`
}

// NewManifest creates a run manifest for a loaded cohort
func NewManifest(runID core.RunID, inputFile string, entityCount int, cohortHash core.CohortHash, params Parameters, seed int64) *Manifest {
	return &Manifest{
		RunID:       runID,
		InputFile:   inputFile,
		EntityCount: entityCount,
		Seed:        seed,
		Fingerprint: NewRunFingerprint(cohortHash, params, seed, CodeVersion),
		CreatedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if _, err := core.ParseRunID(string(m.RunID)); err != nil {
		return core.NewValidationError("run_manifest", err.Error())
	}
	if m.CreatedAt.IsZero() {
		return core.NewValidationError("run_manifest", "created_at cannot be empty")
	}
	if m.Fingerprint.CohortHash == "" {
		return core.NewValidationError("run_manifest", "cohort_hash cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewValidationError("run_manifest", "fingerprint cannot be empty")
	}
	return nil
}

// Reproduces reports whether other is a replay of m with identical results
func (m *Manifest) Reproduces(other *Manifest) bool {
	return m.Fingerprint.Fingerprint.Equals(other.Fingerprint.Fingerprint) &&
		m.OutputFingerprint.Equals(other.OutputFingerprint)
}

// WriteJSON stores the manifest as indented JSON
func (m *Manifest) WriteJSON(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteJSON
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: manifest %s", core.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}
