package worker

import (
	"context"
	"time"

	metricsvc "sales_metrics/internal/api/metrics/service"
	"sales_metrics/internal/logger"
)

// ExecutionLogCleanupWorker dọn metric_execution_logs quá hạn retention.
// Log chạy engine chỉ phục vụ observability nên xóa định kỳ, không cần
// archive.
type ExecutionLogCleanupWorker struct {
	execLogService *metricsvc.ExecutionLogService
	interval       time.Duration // Khoảng thời gian giữa các lần chạy
	retentionDays  int           // Log cũ hơn số ngày này sẽ bị xóa
}

// NewExecutionLogCleanupWorker tạo worker dọn execution log.
// interval dưới 1 phút đưa về mặc định 1 giờ; retentionDays dưới 1 đưa về 30.
func NewExecutionLogCleanupWorker(interval time.Duration, retentionDays int) (*ExecutionLogCleanupWorker, error) {
	execLogService, err := metricsvc.NewExecutionLogService()
	if err != nil {
		return nil, err
	}

	if interval < time.Minute {
		interval = time.Hour
	}
	if retentionDays < 1 {
		retentionDays = 30
	}

	return &ExecutionLogCleanupWorker{
		execLogService: execLogService,
		interval:       interval,
		retentionDays:  retentionDays,
	}, nil
}

// Start chạy worker cho đến khi context bị hủy.
func (w *ExecutionLogCleanupWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":      w.interval.String(),
		"retentionDays": w.retentionDays,
	}).Info("🧹 [EXECLOG_CLEANUP] Starting Execution Log Cleanup Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🧹 [EXECLOG_CLEANUP] Execution Log Cleanup Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🧹 [EXECLOG_CLEANUP] Panic khi dọn execution log, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()

				cutoff := time.Now().AddDate(0, 0, -w.retentionDays).UnixMilli()
				deletedCount, err := w.execLogService.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					log.WithError(err).Error("🧹 [EXECLOG_CLEANUP] Failed to delete expired execution logs")
					return
				}

				if deletedCount > 0 {
					log.WithFields(map[string]interface{}{
						"deletedCount":  deletedCount,
						"retentionDays": w.retentionDays,
					}).Info("🧹 [EXECLOG_CLEANUP] Deleted expired execution logs")
				}
				// deletedCount = 0 thì không log (giảm log noise)
			}()
		}
	}
}
