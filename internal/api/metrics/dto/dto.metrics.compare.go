// Package dto - DTO cho compare mode.
package dto

import (
	"sales_metrics/internal/api/metrics/models"
)

// CompareInput request cho POST /metrics/compare.
type CompareInput struct {
	MetricName string         `json:"metricName" validate:"required"`
	DateRange  DateRangeInput `json:"dateRange" validate:"required"`

	Scope           string `json:"scope" validate:"required,oneof=setter rep pair"`
	AttributionMode string `json:"attributionMode" validate:"required,attribution_mode"`

	// Hai công tắc de-duplication độc lập
	ExcludeInCallDials bool `json:"excludeInCallDials,omitempty"`
	ExcludeRepDials    bool `json:"excludeRepDials,omitempty"`

	SetterIds []string `json:"setterIds,omitempty" validate:"omitempty,dive,object_id"`
	RepIds    []string `json:"repIds,omitempty" validate:"omitempty,dive,object_id"`

	// Entities: nhãn/màu UI cho các entity được chọn, chỉ để gắn nhãn kết quả
	Entities []models.CompareEntity `json:"entities,omitempty" validate:"omitempty,dive"`

	Acquisition *AcquisitionInput `json:"acquisition,omitempty"`
}
