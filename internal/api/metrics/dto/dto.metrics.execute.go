// Package dto - DTO cho domain metrics.
package dto

// DateRangeInput khoảng thời gian yêu cầu, inclusive hai đầu.
type DateRangeInput struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// AcquisitionInput các filter theo kênh acquisition, equality, AND với nhau.
type AcquisitionInput struct {
	UtmSource      string `json:"utmSource,omitempty" validate:"omitempty,no_xss"`
	UtmMedium      string `json:"utmMedium,omitempty" validate:"omitempty,no_xss"`
	UtmCampaign    string `json:"utmCampaign,omitempty" validate:"omitempty,no_xss"`
	UtmContent     string `json:"utmContent,omitempty" validate:"omitempty,no_xss"`
	UtmTerm        string `json:"utmTerm,omitempty" validate:"omitempty,no_xss"`
	SourceCategory string `json:"sourceCategory,omitempty" validate:"omitempty,no_xss"`
	SpecificSource string `json:"specificSource,omitempty" validate:"omitempty,no_xss"`
	SessionSource  string `json:"sessionSource,omitempty" validate:"omitempty,no_xss"`
	Referrer       string `json:"referrer,omitempty" validate:"omitempty,no_xss"`
	Fbclid         string `json:"fbclid,omitempty" validate:"omitempty,no_xss"`
	Fbc            string `json:"fbc,omitempty" validate:"omitempty,no_xss"`
	Fbp            string `json:"fbp,omitempty" validate:"omitempty,no_xss"`
	Gclid          string `json:"gclid,omitempty" validate:"omitempty,no_xss"`
}

// ToMap chuyển về map field bson -> giá trị, bỏ field rỗng.
// Key phải trùng tên field trên activity document.
func (a *AcquisitionInput) ToMap() map[string]string {
	if a == nil {
		return nil
	}
	out := map[string]string{}
	pairs := map[string]string{
		"utmSource":      a.UtmSource,
		"utmMedium":      a.UtmMedium,
		"utmCampaign":    a.UtmCampaign,
		"utmContent":     a.UtmContent,
		"utmTerm":        a.UtmTerm,
		"sourceCategory": a.SourceCategory,
		"specificSource": a.SpecificSource,
		"sessionSource":  a.SessionSource,
		"referrer":       a.Referrer,
		"fbclid":         a.Fbclid,
		"fbc":            a.Fbc,
		"fbp":            a.Fbp,
		"gclid":          a.Gclid,
	}
	for k, v := range pairs {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MetricExecuteInput request cho POST /metrics/execute.
type MetricExecuteInput struct {
	MetricName string         `json:"metricName" validate:"required"`
	DateRange  DateRangeInput `json:"dateRange" validate:"required"`

	RepIds    []string `json:"repIds,omitempty" validate:"omitempty,dive,object_id"`
	SetterIds []string `json:"setterIds,omitempty" validate:"omitempty,dive,object_id"`

	// LinkId scope theo một tracking link; phải tồn tại trong tracking_links
	LinkId string `json:"linkId,omitempty" validate:"omitempty,object_id,exists=tracking_links"`

	Acquisition *AcquisitionInput `json:"acquisition,omitempty"`

	VizType          string `json:"vizType,omitempty" validate:"omitempty,oneof=total series"`
	DynamicBreakdown string `json:"dynamicBreakdown,omitempty" validate:"omitempty,oneof=total rep setter link time"`
	PeriodType       string `json:"periodType,omitempty" validate:"omitempty,period_type"`
}
