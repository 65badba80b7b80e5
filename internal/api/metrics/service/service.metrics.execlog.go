// Package metricsvc - Ghi audit các lần chạy engine vào metric_execution_logs.
// Chỉ ghi cho observability, engine không bao giờ đọc lại để trả kết quả.
package metricsvc

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
	"sales_metrics/internal/logger"
)

// ExecutionLogService ghi và dọn log chạy engine.
type ExecutionLogService struct {
	collection *mongo.Collection
}

// NewExecutionLogService tạo service trên collection metric_execution_logs.
func NewExecutionLogService() (*ExecutionLogService, error) {
	coll, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.MetricExecutionLogs)
	if !ok {
		return nil, common.NewError(
			common.ErrCodeDatabase,
			"Collection chưa được đăng ký: "+global.MongoDB_ColNames.MetricExecutionLogs,
			common.StatusInternalServerError,
			nil,
		)
	}
	return &ExecutionLogService{collection: coll}, nil
}

// Record ghi một dòng log. Lỗi ghi chỉ log ra error logger, không đẩy
// ngược về caller - log không được phép làm fail request metric.
func (s *ExecutionLogService) Record(ctx context.Context, entry models.MetricExecutionLog) {
	entry.CreatedAt = time.Now().UnixMilli()
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"operation": entry.Operation,
			"accountId": entry.AccountID.Hex(),
			"error":     err.Error(),
		}).Error("Ghi metric execution log thất bại")
	}
}

// DeleteOlderThan xóa log có createdAt trước mốc cutoff (epoch millis).
// Worker retention gọi định kỳ.
func (s *ExecutionLogService) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return result.DeletedCount, nil
}
