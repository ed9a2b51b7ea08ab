package mocks

//go:generate mockgen -destination=./mock_estimator.go -package=mocks github.com/rxtech-lab/argo-forecast/internal/model Estimator
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-forecast/internal/indicator Indicator
