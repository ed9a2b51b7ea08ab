package pipeline

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/internal/version"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TuningConfig configures the grid search.
type TuningConfig struct {
	CVSplits    int   `yaml:"cv_splits" json:"cv_splits" jsonschema:"title=CV Splits,description=Number of forward-chaining cross-validation folds,minimum=2,default=3" default:"3" validate:"gte=2"`
	MinFoldSize int   `yaml:"min_fold_size" json:"min_fold_size" jsonschema:"title=Minimum Fold Size,description=Fewest distinct timestamps a cross-validation fold may hold,minimum=1,default=10" default:"10" validate:"gte=1"`
	Workers     int   `yaml:"workers" json:"workers" jsonschema:"title=Workers,description=Grid points scored in parallel (0 uses every CPU),minimum=0" validate:"gte=0"`
	Seed        int64 `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Random state of the estimator,default=42" default:"42"`
	// ParamGrid maps hyperparameter names to candidate values. Empty uses the built-in grid.
	ParamGrid map[string][]any `yaml:"param_grid,omitempty" json:"param_grid,omitempty" jsonschema:"title=Parameter Grid,description=Hyperparameter values to search"`
}

// WalkForwardConfig configures the rolling evaluation over the holdout rows.
type WalkForwardConfig struct {
	InitialTrainSize int `yaml:"initial_train_size" json:"initial_train_size" jsonschema:"title=Initial Train Size,description=Rows each walk-forward window trains on,minimum=1,default=100" default:"100" validate:"gt=0"`
	TestSize         int `yaml:"test_size" json:"test_size" jsonschema:"title=Test Size,description=Rows each walk-forward window is scored on,minimum=1,default=30" default:"30" validate:"gt=0"`
}

// FeaturizerConfig configures per-instrument feature computation.
type FeaturizerConfig struct {
	Workers int `yaml:"workers" json:"workers" jsonschema:"title=Workers,description=Instruments featurized in parallel (0 uses every CPU),minimum=0" validate:"gte=0"`
}

// Config is the full pipeline configuration.
type Config struct {
	Version              string                     `yaml:"version" json:"version" jsonschema:"title=Version,description=Binary version the config was written for,required" validate:"required"`
	Symbols              []string                   `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Instruments to include (empty includes all)" validate:"unique,dive,required"`
	StartTime            optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional first bar time to include"`
	EndTime              optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional last bar time to include"`
	Features             []string                   `yaml:"features" json:"features" jsonschema:"title=Features,description=Ordered candidate features. Earlier features win correlation ties"`
	CorrelationThreshold float64                    `yaml:"correlation_threshold" json:"correlation_threshold" jsonschema:"title=Correlation Threshold,description=Absolute correlation above which the later feature is dropped,exclusiveMinimum=0,maximum=1,default=0.9" default:"0.9" validate:"gt=0,lte=1"`
	SplitBoundary        time.Time                  `yaml:"split_boundary" json:"split_boundary" jsonschema:"title=Split Boundary,description=Last timestamp of the training partition,required" validate:"required"`
	Tuning               TuningConfig               `yaml:"tuning" json:"tuning" jsonschema:"title=Tuning"`
	WalkForward          WalkForwardConfig          `yaml:"walk_forward" json:"walk_forward" jsonschema:"title=Walk Forward"`
	Featurizer           FeaturizerConfig           `yaml:"featurizer" json:"featurizer" jsonschema:"title=Featurizer"`
	LogLevel             string                     `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" default:"info" validate:"oneof=debug info warn error"`
}

// yamlConfig mirrors Config with plain pointers for the optional times.
type yamlConfig struct {
	Version              string            `yaml:"version"`
	Symbols              []string          `yaml:"symbols"`
	StartTime            *time.Time        `yaml:"start_time,omitempty"`
	EndTime              *time.Time        `yaml:"end_time,omitempty"`
	Features             []string          `yaml:"features"`
	CorrelationThreshold float64           `yaml:"correlation_threshold"`
	SplitBoundary        time.Time         `yaml:"split_boundary"`
	Tuning               TuningConfig      `yaml:"tuning"`
	WalkForward          WalkForwardConfig `yaml:"walk_forward"`
	Featurizer           FeaturizerConfig  `yaml:"featurizer"`
	LogLevel             string            `yaml:"log_level"`
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw yamlConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Version = raw.Version
	c.Symbols = raw.Symbols
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	c.Features = raw.Features
	c.CorrelationThreshold = raw.CorrelationThreshold
	c.SplitBoundary = raw.SplitBoundary
	c.Tuning = raw.Tuning
	c.WalkForward = raw.WalkForward
	c.Featurizer = raw.Featurizer
	c.LogLevel = raw.LogLevel

	return nil
}

// MarshalYAML implements custom marshaling for Config.
func (c Config) MarshalYAML() (any, error) {
	raw := yamlConfig{
		Version:              c.Version,
		Symbols:              c.Symbols,
		Features:             c.Features,
		CorrelationThreshold: c.CorrelationThreshold,
		SplitBoundary:        c.SplitBoundary,
		Tuning:               c.Tuning,
		WalkForward:          c.WalkForward,
		Featurizer:           c.Featurizer,
		LogLevel:             c.LogLevel,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		raw.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		raw.EndTime = &end
	}

	return raw, nil
}

// EmptyConfig returns a config with every default applied and no split boundary.
func EmptyConfig() Config {
	config := Config{
		Version:   version.GetVersion(),
		Symbols:   []string{},
		StartTime: optional.None[time.Time](),
		EndTime:   optional.None[time.Time](),
		Features:  types.DefaultFeatureSet().Strings(),
	}

	// defaults only fails on malformed tags
	_ = defaults.Set(&config)

	return config
}

// SampleConfig returns a runnable config with the built-in grid spelled out.
func SampleConfig() Config {
	config := EmptyConfig()
	config.SplitBoundary = time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)
	config.Tuning.ParamGrid = map[string][]any{
		"n_estimators":      {100, 200},
		"max_depth":         {nil, 5, 10},
		"min_samples_split": {2, 5},
		"min_samples_leaf":  {1, 2},
		"max_features":      {"sqrt", "log2"},
	}

	return config
}

// LoadConfig reads, defaults and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(content)
}

// ParseConfig decodes, defaults and validates YAML config content.
func ParseConfig(content []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// ApplyDefaults fills zero values from the default tags and the standard feature list.
func (c *Config) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to apply config defaults", err)
	}

	if len(c.Features) == 0 {
		c.Features = types.DefaultFeatureSet().Strings()
	}

	return nil
}

var validate = validator.New()

// Validate checks field constraints, the date range and version compatibility.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid config: %s", describeValidationError(err))
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.StartTime.Unwrap().Before(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "start_time %s must be before end_time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	if c.StartTime.IsSome() && !c.SplitBoundary.After(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidSplitBoundary, "split_boundary must be after start_time")
	}

	if c.EndTime.IsSome() && !c.SplitBoundary.Before(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidSplitBoundary, "split_boundary must be before end_time")
	}

	if len(c.Tuning.ParamGrid) > 0 {
		for name, values := range c.Tuning.ParamGrid {
			if len(values) == 0 {
				return errors.Newf(errors.ErrCodeEmptyParamGrid, "param_grid.%s has no values", name)
			}
		}
	}

	return version.CheckConfigCompatibility(version.GetVersion(), c.Version)
}

// FeatureSet returns the configured candidate features in order.
func (c *Config) FeatureSet() types.FeatureSet {
	features := make(types.FeatureSet, len(c.Features))
	for i, name := range c.Features {
		features[i] = types.FeatureName(name)
	}

	return features
}

func describeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, validationMessage(fe))
	}

	return strings.Join(messages, "; ")
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Namespace()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "forecast-pipeline-config"
	schema.Description = "Configuration schema for the forecast pipeline"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
