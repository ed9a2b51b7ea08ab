package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/mocks"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	tmpDir     string
	bars       []types.PriceBar
	dataSource DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.tmpDir = suite.T().TempDir()
	suite.bars = mocks.GenerateDaily([]string{"AAPL", "MSFT", "TSLA"}, 50)

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.dataSource = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	if suite.dataSource != nil {
		suite.dataSource.Close()
	}
}

// writeBars writes bars to path with duckdb COPY in the given format.
func writeBars(bars []types.PriceBar, path string, format FileFormat) error {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		return err
	}

	for _, b := range bars {
		_, err = db.Exec(`INSERT INTO market_data VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.Time, b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return err
		}
	}

	options := "(FORMAT PARQUET)"
	if format == FileFormatCSV {
		options = "(FORMAT CSV, HEADER)"
	}

	_, err = db.Exec(fmt.Sprintf(`COPY market_data TO '%s' %s`, path, options))

	return err
}

func (suite *DuckDBDataSourceTestSuite) writeFile(name string, bars []types.PriceBar) string {
	path := filepath.Join(suite.tmpDir, name)
	format, err := DetectFormat(path)
	suite.Require().NoError(err)
	suite.Require().NoError(writeBars(bars, path, format))

	return path
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllBars() {
	path := suite.writeFile("bars.parquet", suite.bars)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	bars, err := suite.dataSource.ReadBars(nil, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, len(suite.bars))

	// ordered by symbol, then time
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		if prev.Symbol == cur.Symbol {
			suite.True(prev.Time.Before(cur.Time))
		} else {
			suite.Less(prev.Symbol, cur.Symbol)
		}
	}

	byKey := make(map[string]types.PriceBar, len(suite.bars))
	for _, b := range suite.bars {
		byKey[b.Symbol+b.Time.Format(time.RFC3339)] = b
	}

	for _, b := range bars {
		expected, ok := byKey[b.Symbol+b.Time.Format(time.RFC3339)]
		suite.Require().True(ok, "unexpected bar %s at %s", b.Symbol, b.Time)
		suite.Equal(expected.Close, b.Close)
		suite.Equal(expected.Volume, b.Volume)
		suite.Equal(time.UTC, b.Time.Location())
	}
}

func (suite *DuckDBDataSourceTestSuite) TestReadBarsFiltered() {
	path := suite.writeFile("bars.parquet", suite.bars)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	start := time.Date(2018, 1, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 1, 20, 0, 0, 0, 0, time.UTC)

	bars, err := suite.dataSource.ReadBars([]string{"MSFT", "TSLA"}, optional.Some(start), optional.Some(end))
	suite.Require().NoError(err)
	// ten days inclusive for two symbols
	suite.Require().Len(bars, 20)

	for _, b := range bars {
		suite.NotEqual("AAPL", b.Symbol)
		suite.False(b.Time.Before(start))
		suite.False(b.Time.After(end))
	}

	suite.Equal("MSFT", bars[0].Symbol)
	suite.Equal("TSLA", bars[19].Symbol)
}

func (suite *DuckDBDataSourceTestSuite) TestCountAndSymbols() {
	path := suite.writeFile("bars.parquet", suite.bars)
	suite.Require().NoError(suite.dataSource.Initialize(path))

	count, err := suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(150, count)

	count, err = suite.dataSource.Count(optional.Some(time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC)), optional.None[time.Time]())
	suite.Require().NoError(err)
	// 2018-02-01 through 2018-02-19
	suite.Equal(3*19, count)

	symbols, err := suite.dataSource.Symbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT", "TSLA"}, symbols)
}

func (suite *DuckDBDataSourceTestSuite) TestMultipleFilesAndCSV() {
	var aapl, rest []types.PriceBar
	for _, b := range suite.bars {
		if b.Symbol == "AAPL" {
			aapl = append(aapl, b)
		} else {
			rest = append(rest, b)
		}
	}

	parquetPath := suite.writeFile("aapl.parquet", aapl)
	csvPath := suite.writeFile("rest.csv", rest)
	suite.Require().NoError(suite.dataSource.Initialize(parquetPath, csvPath))

	bars, err := suite.dataSource.ReadBars(nil, optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Len(bars, len(suite.bars))

	symbols, err := suite.dataSource.Symbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT", "TSLA"}, symbols)

	// re-initializing replaces the bar set
	suite.Require().NoError(suite.dataSource.Initialize(parquetPath))

	count, err := suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(50, count)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeErrors() {
	txt := filepath.Join(suite.tmpDir, "bars.txt")
	suite.Require().NoError(os.WriteFile(txt, []byte("x"), 0644))

	tests := []struct {
		name  string
		paths []string
		code  errors.ErrorCode
	}{
		{name: "no paths", paths: nil, code: errors.ErrCodeInvalidParameter},
		{name: "missing file", paths: []string{filepath.Join(suite.tmpDir, "missing.parquet")}, code: errors.ErrCodeDataSourceUnavailable},
		{name: "unsupported extension", paths: []string{txt}, code: errors.ErrCodeInvalidParameter},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := suite.dataSource.Initialize(tt.paths...)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tt.code), "unexpected error: %v", err)
		})
	}
}

func (suite *DuckDBDataSourceTestSuite) TestQueryBeforeInitialize() {
	_, err := suite.dataSource.ReadBars(nil, optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	_, err = suite.dataSource.Symbols()
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	_, err = suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *DuckDBDataSourceTestSuite) TestDetectFormat() {
	format, err := DetectFormat("/data/Bars.PARQUET")
	suite.Require().NoError(err)
	suite.Equal(FileFormatParquet, format)

	format, err = DetectFormat("bars.csv")
	suite.Require().NoError(err)
	suite.Equal(FileFormatCSV, format)

	_, err = DetectFormat("bars.json")
	suite.Error(err)
}
