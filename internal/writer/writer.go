package writer

import (
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// FeatureWriter defines the interface for persisting feature rows to a destination.
type FeatureWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single feature row.
	Write(row types.FeatureRow) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
