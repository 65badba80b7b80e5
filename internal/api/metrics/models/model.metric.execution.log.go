// Package models - MetricExecutionLog (metric_execution_logs).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trạng thái một lần chạy engine.
const (
	ExecutionStatusSuccess = "success"
	ExecutionStatusError   = "error"
	ExecutionStatusPartial = "partial" // Batch có unit fail nhưng vẫn trả kết quả
)

// MetricExecutionLog ghi lại một lần gọi engine cho mục đích observability.
// Chỉ ghi, không bao giờ đọc lại để trả kết quả - đây không phải cache
// giá trị metric. Worker dọn log cũ theo retention.
type MetricExecutionLog struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`

	Operation   string   `json:"operation" bson:"operation"` // execute | users | compare
	MetricNames []string `json:"metricNames" bson:"metricNames"`

	RangeStart string `json:"rangeStart" bson:"rangeStart"` // YYYY-MM-DD
	RangeEnd   string `json:"rangeEnd" bson:"rangeEnd"`

	DurationMs int64  `json:"durationMs" bson:"durationMs"`
	Status     string `json:"status" bson:"status"`
	Error      string `json:"error,omitempty" bson:"error,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
}
