// Package dto - DTO cho sinh period bucket.
package dto

// PeriodsInput query params cho GET /metrics/periods.
type PeriodsInput struct {
	StartDate  string `query:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `query:"endDate" validate:"required,datetime=2006-01-02"`
	PeriodType string `query:"periodType" validate:"required,period_type"`
}
