package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// AuditAction mô tả một hành động được ghi vào audit log
type AuditAction struct {
	Action    string                 `json:"action"`     // Tên hành động (ví dụ: "metrics_execute", "metrics_compare")
	AccountID string                 `json:"account_id"` // ID tài khoản (tenant) thực hiện
	IP        string                 `json:"ip"`         // IP address
	UserAgent string                 `json:"user_agent"` // User agent
	Details   map[string]interface{} `json:"details"`    // Chi tiết bổ sung
	Timestamp time.Time              `json:"timestamp"`  // Thời gian
}

// LogAction log một hành động audit
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	auditLogger := GetAuditLogger()

	if details == nil {
		details = make(map[string]interface{})
	}

	audit := AuditAction{
		Action:    action,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Details:   details,
		Timestamp: time.Now(),
	}

	// Lấy account ID từ context nếu có (middleware account_context đã set)
	if accountID := c.Locals("accountID"); accountID != nil {
		if aid, ok := accountID.(string); ok {
			audit.AccountID = aid
		}
	}

	// Lấy request ID
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		audit.Details["request_id"] = requestID
	}

	auditLogger.WithFields(logrus.Fields{
		"action":     audit.Action,
		"account_id": audit.AccountID,
		"ip":         audit.IP,
		"user_agent": audit.UserAgent,
		"details":    audit.Details,
		"timestamp":  audit.Timestamp,
	}).Info("Audit log")
}

// LogMetricExecution log một lần thực thi metric (execute/users/compare)
func LogMetricExecution(operation string, metricNames []string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["operation"] = operation
	details["metrics"] = metricNames

	LogAction("metrics_"+operation, c, details)
}
