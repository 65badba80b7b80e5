// Package models - Model và catalog của metric engine.
// MetricDefinition là immutable, load một lần lúc khởi động và chỉ đọc sau đó.
package models

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Đơn vị của metric.
const (
	UnitCount    = "count"
	UnitCurrency = "currency"
	UnitPercent  = "percent"
	UnitSeconds  = "seconds"
	UnitDays     = "days"
)

// Kiểu aggregate của một leg.
const (
	AggCount = "count" // Đếm document khớp filter
	AggSum   = "sum"   // Tổng FieldPath
	AggAvg   = "avg"   // Trung bình FieldPath = sum/count (không average per-row)
)

// Breakdown - chiều nhóm kết quả.
const (
	BreakdownTotal  = "total"
	BreakdownRep    = "rep"
	BreakdownSetter = "setter"
	BreakdownLink   = "link"
	BreakdownTime   = "time"
)

// MetricLeg mô tả một truy vấn aggregate lên một collection nguồn.
// Metric đơn giản có một leg; metric percent có leg tử số và leg mẫu số
// (có thể khác collection, ví dụ booking_rate = appointments / dials).
type MetricLeg struct {
	Source    string `json:"-"` // Tên collection nguồn
	TimeField string `json:"-"` // Field thời gian áp dateRange (epoch millis)
	Agg       string `json:"-"` // count | sum | avg
	FieldPath string `json:"-"` // Field số cho sum/avg
	Match     bson.M `json:"-"` // Điều kiện tĩnh thêm vào $match (vd: status won)
}

// MetricDefinition định nghĩa một metric trong catalog.
// Keyed theo Name, không bao giờ mutate sau khi đăng ký.
type MetricDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`

	Unit string `json:"unit"` // count | currency | percent | seconds | days

	// BreakdownType là breakdown native của metric: chiều nhóm mà truy vấn
	// nguồn hỗ trợ trực tiếp. dynamicBreakdown ngoài SupportedBreakdowns
	// sẽ rơi về breakdown native kèm warning, không lỗi.
	BreakdownType       string   `json:"breakdownType"`
	SupportedBreakdowns []string `json:"supportedBreakdowns"`

	Leg         MetricLeg  `json:"-"` // Leg chính (tử số với metric percent)
	Denominator *MetricLeg `json:"-"` // Leg mẫu số, nil trừ metric percent
}

// IsRatio cho biết metric tính theo tỉ lệ hai sub-count.
func (d MetricDefinition) IsRatio() bool {
	return d.Denominator != nil
}

// Additive cho biết giá trị hai vai trò cộng được trực tiếp
// (count/sum); metric tỉ lệ phải kết hợp theo mẫu số.
func (d MetricDefinition) Additive() bool {
	return d.Denominator == nil && (d.Leg.Agg == AggCount || d.Leg.Agg == AggSum)
}
