package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type RecorderTestSuite struct {
	suite.Suite
	recorder *Recorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderTestSuite))
}

func (suite *RecorderTestSuite) SetupTest() {
	suite.recorder = New()
}

func (suite *RecorderTestSuite) TestRecordInstrument() {
	suite.recorder.RecordInstrument("AAPL", 120, 33, 1, 86, nil)
	suite.recorder.RecordInstrument("BAD", 50, 0, 0, 0, fmt.Errorf("boom"))

	suite.Equal(120.0, testutil.ToFloat64(suite.recorder.barsTotal.WithLabelValues("AAPL")))
	suite.Equal(86.0, testutil.ToFloat64(suite.recorder.rowsTotal.WithLabelValues("AAPL")))
	suite.Equal(33.0, testutil.ToFloat64(suite.recorder.rowsDropped.WithLabelValues("AAPL", "undefined_feature")))
	suite.Equal(1.0, testutil.ToFloat64(suite.recorder.instrumentsDone.WithLabelValues("ok")))
	suite.Equal(1.0, testutil.ToFloat64(suite.recorder.instrumentsDone.WithLabelValues("failed")))
}

func (suite *RecorderTestSuite) TestRecordersAreIndependent() {
	other := New()
	suite.recorder.RecordGridPoint()
	suite.recorder.RecordGridPoint()

	suite.Equal(2.0, testutil.ToFloat64(suite.recorder.gridPoints))
	suite.Equal(0.0, testutil.ToFloat64(other.gridPoints))
}

func (suite *RecorderTestSuite) TestWriteTextfile() {
	suite.recorder.SetAccuracy("holdout", 0.55)
	suite.recorder.SetWindowAccuracy("0", 0.6)
	suite.recorder.ObserveStage("featurize", 20*time.Millisecond)

	path := filepath.Join(suite.T().TempDir(), "forecast.prom")
	suite.Require().NoError(suite.recorder.WriteTextfile(path))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(content), `argo_forecast_accuracy{evaluation="holdout"} 0.55`)
	suite.Contains(string(content), `argo_forecast_walk_forward_window_accuracy{window="0"} 0.6`)
	suite.Contains(string(content), "argo_forecast_stage_duration_seconds_count")
}

func (suite *RecorderTestSuite) TestWriteTextfileInvalidPath() {
	err := suite.recorder.WriteTextfile(filepath.Join(suite.T().TempDir(), "missing", "forecast.prom"))
	suite.Error(err)
}
