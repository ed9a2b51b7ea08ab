package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

// Category groups error codes by the hundreds range they live in.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryConfiguration
	CategoryDataIntegrity
	CategoryIndicator
	CategoryModel
	CategoryStorage
)

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSplitBoundary ErrorCode = 102
	ErrCodeInvalidWindowSize    ErrorCode = 103
	ErrCodeEmptyParamGrid       ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeUnknownFeature       ErrorCode = 106
	ErrCodeDuplicateFeature     ErrorCode = 107
	ErrCodeInvalidType          ErrorCode = 108
	ErrCodeInvalidPeriod        ErrorCode = 109
	ErrCodeMissingParameter     ErrorCode = 110
	ErrCodeInvalidVersion       ErrorCode = 111

	// Data integrity errors (200-299)
	ErrCodeNonMonotonicTimestamps ErrorCode = 200
	ErrCodeDuplicateBar           ErrorCode = 201
	ErrCodeCrossInstrumentLeak    ErrorCode = 202
	ErrCodeMixedInstruments       ErrorCode = 203
	ErrCodeEmptyInput             ErrorCode = 204
	ErrCodeMisalignedData         ErrorCode = 205
	ErrCodeTemporalLeak           ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Model errors (400-499)
	ErrCodeModelNotFitted   ErrorCode = 400
	ErrCodeFeatureMismatch  ErrorCode = 401
	ErrCodeModelFitFailed   ErrorCode = 402
	ErrCodeInvalidModelSpec ErrorCode = 403

	// Storage errors (600-699)
	ErrCodeDataSourceUnavailable ErrorCode = 600
	ErrCodeQueryFailed           ErrorCode = 601
	ErrCodeWriteFailed           ErrorCode = 602
	ErrCodeDataNotFound          ErrorCode = 603
)

// Category returns the category the code belongs to.
func (c ErrorCode) Category() Category {
	switch {
	case c >= 100 && c < 200:
		return CategoryConfiguration
	case c >= 200 && c < 300:
		return CategoryDataIntegrity
	case c >= 300 && c < 400:
		return CategoryIndicator
	case c >= 400 && c < 500:
		return CategoryModel
	case c >= 600 && c < 700:
		return CategoryStorage
	default:
		return CategoryGeneral
	}
}
