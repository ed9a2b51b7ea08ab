package writer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

const featureTable = "feature_rows"

// DuckDBWriter implements FeatureWriter by staging rows in an in-memory DuckDB
// table and exporting it as parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	features   types.FeatureSet
	rows       int
	log        *logger.Logger
}

// NewDuckDBWriter creates a writer exporting the given feature columns, in order, to outputPath.
func NewDuckDBWriter(outputPath string, features types.FeatureSet, log *logger.Logger) FeatureWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		features:   features.Clone(),
		log:        log,
	}
}

// Initialize creates the staging table, begins a transaction and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	if len(w.features) == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "at least one feature column is required")
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	columns := []string{"id TEXT", "time TIMESTAMP", "symbol TEXT", "close DOUBLE"}
	placeholders := []string{"?", "?", "?", "?"}

	for _, name := range w.features {
		columns = append(columns, quoteIdentifier(string(name))+" DOUBLE")
		placeholders = append(placeholders, "?")
	}

	columns = append(columns, "label INTEGER")
	placeholders = append(placeholders, "?")

	_, err = w.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", featureTable, strings.Join(columns, ", ")))
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", featureTable, strings.Join(placeholders, ", ")))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx = nil
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts one feature row within the open transaction.
func (w *DuckDBWriter) Write(row types.FeatureRow) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized or statement is nil")
	}

	values, err := row.Vector(w.features)
	if err != nil {
		return err
	}

	args := make([]any, 0, len(values)+5)
	args = append(args, uuid.New().String(), row.Time, row.Symbol, row.Close)

	for _, value := range values {
		args = append(args, value)
	}

	args = append(args, row.Label)

	if _, err := w.stmt.Exec(args...); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert row for %s", row.Symbol)
	}

	w.rows++

	return nil
}

// Finalize commits the transaction and exports the rows, ordered by time and symbol, to parquet.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriteFailed, "writer not initialized or transaction is nil")
	}

	if err = w.stmt.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to close statement", err)
	}

	w.stmt = nil

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	query := fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY time, symbol) TO '%s' (FORMAT PARQUET)",
		featureTable, strings.ReplaceAll(w.outputPath, "'", "''"))
	if _, err = w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export to parquet %s", w.outputPath)
	}

	w.log.Info("Exported feature table",
		zap.String("path", w.outputPath),
		zap.Int("rows", w.rows),
		zap.Int("features", len(w.features)),
	)

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.log.Warn("Failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeWriteFailed, "errors occurred during close: %s", strings.Join(closeErrors, "; "))
	}

	return nil
}

// GetOutputPath implements FeatureWriter.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// WriteFeatureTable exports table to a parquet file at path.
func WriteFeatureTable(path string, features types.FeatureSet, table types.FeatureTable, log *logger.Logger) (string, error) {
	w := NewDuckDBWriter(path, features, log)
	if err := w.Initialize(); err != nil {
		return "", err
	}
	defer w.Close()

	for _, row := range table {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
