package main

import (
	"context"
	"time"

	"sales_metrics/internal/database"
	"sales_metrics/internal/global"
	"sales_metrics/internal/logger"
)

// InitData đảm bảo các index cần thiết cho metric queries đã tồn tại.
// Mọi query của engine đều lọc theo accountId + time field, nên thiếu index
// là collection scan trên toàn bộ dữ liệu activity.
func InitData() {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitData...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := global.MongoDB_Session.Database(global.ServerConfig.MongoDB_DBName_Data)
	if err := database.CreateActivityIndexes(ctx, db); err != nil {
		// Index creation thất bại không chặn server: queries vẫn đúng, chỉ chậm
		log.WithError(err).Warn("❌ [INIT] Failed to create activity indexes, queries may be slow")
	} else {
		log.Info("✅ [INIT] Activity indexes ensured")
	}

	log.Info("✅ [INIT] InitData completed")
}
