// Package models - Các kiểu kết quả của metric engine.
package models

import (
	"time"
)

// Kiểu kết quả execute. Tagged union: Type quyết định field nào có dữ liệu.
const (
	ResultTypeTotal  = "total"
	ResultTypeSeries = "series"
)

// Kiểu visualization caller yêu cầu.
const (
	VizTypeTotal  = "total"
	VizTypeSeries = "series"
)

// TotalData giá trị scalar của một total request.
// Change là delta tuyệt đối so với khoảng liền trước cùng độ dài, cùng filter.
type TotalData struct {
	Value  float64  `json:"value"`
	Change *float64 `json:"change,omitempty"`
}

// SeriesPoint một dòng của kết quả series: một period bucket hoặc một group
// (rep/setter/link). Với time bucket thứ tự là chronological, với group
// là key tăng dần - ổn định, không phụ thuộc thứ tự trả về của datastore.
type SeriesPoint struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`

	// Error khác rỗng: period này tính thất bại, Value = 0 là fallback.
	Error string `json:"error,omitempty"`
}

// MetricResult kết quả execute. Type = total thì đọc Total,
// Type = series thì đọc Series; không đoán theo field nào khác nil.
type MetricResult struct {
	Type      string        `json:"type"` // total | series
	Total     *TotalData    `json:"total,omitempty"`
	Series    []SeriesPoint `json:"series,omitempty"`
	Breakdown string        `json:"breakdown,omitempty"` // Breakdown hiệu lực sau fallback
	Warning   string        `json:"warning,omitempty"`   // Set khi dynamicBreakdown bị degrade
}

// Vai trò của user trong window tính metric.
const (
	UserRoleSetter = "setter"
	UserRoleRep    = "rep"
	UserRoleBoth   = "both"
	UserRoleNone   = "none" // Không có activity nào trong window
)

// RoleBreakdown tách giá trị hai vai trò khi role = both.
// Với metric count: AsSetter + AsRep == Value.
type RoleBreakdown struct {
	AsSetter float64 `json:"asSetter"`
	AsRep    float64 `json:"asRep"`
}

// UserMetricResult kết quả metric của một user trong batch.
// Error khác rỗng nghĩa là unit này fail và Value = 0 là fallback,
// phân biệt được với giá trị 0 thật.
type UserMetricResult struct {
	UserID    string         `json:"userId"`
	Value     float64        `json:"value"`
	Role      string         `json:"role"` // setter | rep | both | none
	Breakdown *RoleBreakdown `json:"breakdown,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Period một bucket thời gian liên tục, không chồng lấn.
// Start là 00:00 ngày đầu, End là cuối ngày cuối (inclusive), đã clip
// vào range ngoài. StartDate/EndDate dạng YYYY-MM-DD cho response JSON.
type Period struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Start     time.Time `json:"-"`
	End       time.Time `json:"-"`
}

// CompareEntity lựa chọn UI của một entity đem so sánh, truyền theo request,
// không persist.
type CompareEntity struct {
	ID    string `json:"id" validate:"required,object_id"`
	Type  string `json:"type" validate:"required,oneof=setter rep"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// CompareRow giá trị metric của một entity (hoặc một cặp setter×rep)
// sau khi resolve attribution. SetterID rỗng là bucket inbound/no-setter.
type CompareRow struct {
	SetterID string  `json:"setterId,omitempty"`
	RepID    string  `json:"repId,omitempty"`
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
}
