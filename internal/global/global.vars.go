// Package global chứa các biến toàn cục của ứng dụng: cấu hình server,
// phiên kết nối MongoDB, validator và các registry collections.
package global

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"sales_metrics/config"
	"sales_metrics/internal/registry"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	// Activity Collections (dữ liệu nguồn cho metric engine)
	ActivityDials        string // Tên collection cho các cuộc gọi dial
	ActivityAppointments string // Tên collection cho các appointment đã book
	ActivityDiscoveries  string // Tên collection cho các discovery call
	ActivityDeals        string // Tên collection cho các deal
	ActivityPayments     string // Tên collection cho các payment đã thu

	// Attribution Collections
	ContactTouches string // Tên collection cho lịch sử touch của setter với contact
	TrackingLinks  string // Tên collection cho tracking links (nguồn acquisition)

	// Observability Collections
	MetricExecutionLogs string // Tên collection cho audit log các lần thực thi metric
}

// Các biến toàn cục
var Validate *validator.Validate               // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client              // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration         // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{ // Tên các collection
	ActivityDials:        "activity_dials",
	ActivityAppointments: "activity_appointments",
	ActivityDiscoveries:  "activity_discoveries",
	ActivityDeals:        "activity_deals",
	ActivityPayments:     "activity_payments",
	ContactTouches:       "contact_touches",
	TrackingLinks:        "tracking_links",
	MetricExecutionLogs:  "metric_execution_logs",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
