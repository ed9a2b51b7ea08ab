package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir  string
	features types.FeatureSet
	log      *logger.Logger
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.features = types.FeatureSet{types.FeatureRSI, types.FeatureMACDSignal}
	suite.log = logger.NewNopLogger()
}

func (suite *DuckDBWriterTestSuite) table() types.FeatureTable {
	base := time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)

	var table types.FeatureTable
	for i := 0; i < 5; i++ {
		for _, symbol := range []string{"MSFT", "AAPL"} {
			table = append(table, types.FeatureRow{
				Symbol: symbol,
				Time:   base.AddDate(0, 0, i),
				Close:  100 + float64(i),
				Features: map[types.FeatureName]float64{
					types.FeatureRSI:        50 + float64(i),
					types.FeatureMACDSignal: -0.5 * float64(i),
				},
				Label: i % 2,
			})
		}
	}

	return table
}

func (suite *DuckDBWriterTestSuite) query(path string, query string) *sql.Rows {
	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { db.Close() })

	rows, err := db.Query(fmt.Sprintf(query, path))
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { rows.Close() })

	return rows
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "features.parquet")
	writer := NewDuckDBWriter(outputPath, suite.features, suite.log)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.Require().True(ok)
	suite.Equal(outputPath, writer.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteFeatureTable() {
	outputPath := filepath.Join(suite.tempDir, "features.parquet")

	path, err := WriteFeatureTable(outputPath, suite.features, suite.table(), suite.log)
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	rows := suite.query(path, "SELECT symbol, time, close, rsi, macd_signal, label, id FROM read_parquet('%s')")

	var symbols []string
	var times []time.Time
	ids := map[string]bool{}

	for rows.Next() {
		var (
			symbol, id      string
			timestamp       time.Time
			closePrice, rsi float64
			macdSignal      float64
			label           int
		)
		suite.Require().NoError(rows.Scan(&symbol, &timestamp, &closePrice, &rsi, &macdSignal, &label, &id))

		day := timestamp.Sub(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)) / (24 * time.Hour)
		suite.Equal(100+float64(day), closePrice)
		suite.Equal(50+float64(day), rsi)
		suite.Equal(-0.5*float64(day), macdSignal)
		suite.Equal(int(day)%2, label)

		symbols = append(symbols, symbol)
		times = append(times, timestamp)
		ids[id] = true
	}
	suite.Require().NoError(rows.Err())

	suite.Len(symbols, 10)
	suite.Len(ids, 10)
	// exported in (time, symbol) order
	suite.Equal("AAPL", symbols[0])
	suite.Equal("MSFT", symbols[1])
	for i := 1; i < len(times); i++ {
		suite.False(times[i].Before(times[i-1]))
	}
}

func (suite *DuckDBWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), suite.features, suite.log)

	err := writer.Write(suite.table()[0])
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))

	_, err = writer.Finalize()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
}

func (suite *DuckDBWriterTestSuite) TestWriteMissingFeature() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), types.FeatureSet{types.FeatureATR}, suite.log)
	suite.Require().NoError(writer.Initialize())
	defer writer.Close()

	err := writer.Write(suite.table()[0])
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownFeature))
}

func (suite *DuckDBWriterTestSuite) TestInitializeWithoutFeatures() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), nil, suite.log)

	err := writer.Initialize()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *DuckDBWriterTestSuite) TestFinalizeExportError() {
	outputPath := filepath.Join(suite.tempDir, "missing", "dir", "x.parquet")

	_, err := WriteFeatureTable(outputPath, suite.features, suite.table(), suite.log)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))

	_, statErr := os.Stat(outputPath)
	suite.True(os.IsNotExist(statErr))
}

func (suite *DuckDBWriterTestSuite) TestDoubleClose() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), suite.features, suite.log)
	suite.Require().NoError(writer.Initialize())

	suite.NoError(writer.Close())
	suite.NoError(writer.Close())

	duckWriter := writer.(*DuckDBWriter)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestEmptyTable() {
	outputPath := filepath.Join(suite.tempDir, "empty.parquet")

	_, err := WriteFeatureTable(outputPath, suite.features, nil, suite.log)
	suite.Require().NoError(err)

	rows := suite.query(outputPath, "SELECT COUNT(*) FROM read_parquet('%s')")
	suite.Require().True(rows.Next())

	var count int
	suite.Require().NoError(rows.Scan(&count))
	suite.Equal(0, count)
}
