package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/types"
)

// FileFormat is a bar file encoding the data source can read.
type FileFormat string

const (
	FileFormatParquet FileFormat = "parquet"
	FileFormatCSV     FileFormat = "csv"
)

// DataSource loads multi-instrument price bars.
type DataSource interface {
	// Initialize registers one or more bar files (parquet or csv) as the queryable bar set.
	// Every file must hold the columns time, symbol, open, high, low, close and volume.
	Initialize(paths ...string) error
	// ReadBars returns the bars of the given symbols (all symbols when empty) within
	// [start, end], ordered by symbol and time.
	ReadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.PriceBar, error)
	// Symbols returns the distinct symbols in the bar set, sorted.
	Symbols() ([]string, error)
	// Count returns the number of bars within [start, end].
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the underlying database.
	Close() error
}
