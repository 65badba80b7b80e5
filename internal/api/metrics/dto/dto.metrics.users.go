// Package dto - DTO cho batch metric theo user.
package dto

// UserMetricsInput request cho POST /metrics/users.
// Không nhận repIds/setterIds: engine tự suy vai trò của từng user.
type UserMetricsInput struct {
	MetricName string         `json:"metricName" validate:"required"`
	DateRange  DateRangeInput `json:"dateRange" validate:"required"`

	UserIds []string `json:"userIds" validate:"required,min=1,max=200,dive,object_id"`

	Acquisition *AcquisitionInput `json:"acquisition,omitempty"`
}
