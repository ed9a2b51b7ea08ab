package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

const barsView = "bars"

type DuckDBDataSource struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	initialized bool
}

// NewDataSource creates a DuckDB data source backed by the database at path.
// Use ":memory:" for a transient database. Bar files are attached with Initialize.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open duckdb at %s", path)
	}

	return &DuckDBDataSource{
		db:          db,
		logger:      logger,
		sq:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		initialized: false,
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(paths ...string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "at least one data file is required")
	}

	selects := make([]string, 0, len(paths))

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "data file %s is not readable", path)
		}

		format, err := DetectFormat(path)
		if err != nil {
			return err
		}

		selects = append(selects, selectFrom(path, format))
	}

	d.logger.Debug("Initializing DuckDB data source", zap.Strings("paths", paths))

	// First drop the view if it exists
	if _, err := d.db.Exec(fmt.Sprintf("DROP VIEW IF EXISTS %s;", barsView)); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf("CREATE VIEW %s AS %s;", barsView, strings.Join(selects, " UNION ALL "))
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create bars view", err)
	}

	d.initialized = true

	return nil
}

// ReadBars implements DataSource.
func (d *DuckDBDataSource) ReadBars(symbols []string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.PriceBar, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}

	conditions := d.timeConditions(start, end)
	if len(symbols) > 0 {
		conditions = append(conditions, squirrel.Eq{"symbol": symbols})
	}

	query, args, err := d.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From(barsView).
		Where(conditions).
		OrderBy("symbol ASC", "time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	result := make([]types.PriceBar, 0, 1000)

	for rows.Next() {
		var (
			timestamp                      time.Time
			open, high, low, close, volume float64
			symbol                         string
		)

		if err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		result = append(result, types.PriceBar{
			Symbol: symbol,
			Time:   timestamp.UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	d.logger.Debug("Read bars",
		zap.Int("bars", len(result)),
		zap.Strings("symbols", symbols),
	)

	return result, nil
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}

	query, args, err := d.sq.Select("DISTINCT symbol").From(barsView).OrderBy("symbol").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}

	query, args, err := d.sq.
		Select("COUNT(*)").
		From(barsView).
		Where(d.timeConditions(start, end)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func (d *DuckDBDataSource) ready() error {
	if !d.initialized {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	return nil
}

func (d *DuckDBDataSource) timeConditions(start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.And {
	conditions := squirrel.And{}

	if start.IsSome() {
		conditions = append(conditions, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		conditions = append(conditions, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return conditions
}

// DetectFormat infers the file format from the path extension.
func DetectFormat(path string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FileFormatParquet, nil
	case ".csv":
		return FileFormatCSV, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file %s: expected .parquet or .csv", path)
	}
}

// selectFrom projects a bar file onto the canonical column types.
func selectFrom(path string, format FileFormat) string {
	reader := "read_parquet"
	if format == FileFormatCSV {
		reader = "read_csv_auto"
	}

	return fmt.Sprintf(
		"SELECT CAST(time AS TIMESTAMP) AS time, CAST(symbol AS VARCHAR) AS symbol, "+
			"CAST(open AS DOUBLE) AS open, CAST(high AS DOUBLE) AS high, CAST(low AS DOUBLE) AS low, "+
			"CAST(close AS DOUBLE) AS close, CAST(volume AS DOUBLE) AS volume FROM %s('%s')",
		reader, strings.ReplaceAll(path, "'", "''"),
	)
}
