// Package metricsvc - Engine tính sales-performance metrics.
// Catalog là lookup table bất biến, construct tường minh lúc khởi động
// và inject vào engine (không dùng global mutable state) để test được
// với catalog giả.
package metricsvc

import (
	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
)

// Catalog chứa toàn bộ MetricDefinition, lookup O(1) theo tên.
// Chỉ đọc sau khi tạo nên an toàn cho concurrent reader, không cần lock.
type Catalog struct {
	defs  map[string]models.MetricDefinition
	names []string // Thứ tự khai báo, dùng cho listing
}

// NewCatalog tạo catalog từ danh sách definition. Tên trùng thì định nghĩa
// sau ghi đè định nghĩa trước (không xảy ra với catalog tĩnh).
func NewCatalog(defs []models.MetricDefinition) *Catalog {
	c := &Catalog{
		defs:  make(map[string]models.MetricDefinition, len(defs)),
		names: make([]string, 0, len(defs)),
	}
	for _, def := range defs {
		if _, exists := c.defs[def.Name]; !exists {
			c.names = append(c.names, def.Name)
		}
		c.defs[def.Name] = def
	}
	return c
}

// DefaultCatalog tạo catalog từ danh sách metric tĩnh của hệ thống.
func DefaultCatalog() *Catalog {
	return NewCatalog(models.CatalogDefinitions)
}

// GetMetric tra một metric theo tên. Tên không tồn tại là lỗi của caller
// (MetricNotFound), không bao giờ trả default ngầm.
func (c *Catalog) GetMetric(name string) (models.MetricDefinition, error) {
	def, ok := c.defs[name]
	if !ok {
		return models.MetricDefinition{}, common.NewError(
			common.ErrCodeMetricRegistry,
			"Metric không tồn tại trong catalog: "+name,
			common.StatusNotFound,
			map[string]interface{}{"metricName": name},
		)
	}
	return def, nil
}

// AllMetricNames trả danh sách tên metric theo thứ tự khai báo.
func (c *Catalog) AllMetricNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Count số metric đã đăng ký.
func (c *Catalog) Count() int {
	return len(c.defs)
}
