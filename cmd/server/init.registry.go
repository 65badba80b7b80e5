package main

import (
	"sales_metrics/config"
	"sales_metrics/internal/global"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func InitRegistry() {

	logrus.Info("Initialized registry") // Ghi log thông báo đã khởi tạo registry

	// Khởi tạo registry và đăng ký các collections
	err := InitCollections(global.MongoDB_Session, global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to initialize collections: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// InitCollections khởi tạo và đăng ký các collections MongoDB
func InitCollections(client *mongo.Client, cfg *config.Configuration) error {
	db := client.Database(cfg.MongoDB_DBName_Data)
	colNames := []string{
		// Activity collections (dữ liệu nguồn cho metric engine)
		global.MongoDB_ColNames.ActivityDials,
		global.MongoDB_ColNames.ActivityAppointments,
		global.MongoDB_ColNames.ActivityDiscoveries,
		global.MongoDB_ColNames.ActivityDeals,
		global.MongoDB_ColNames.ActivityPayments,
		// Attribution collections
		global.MongoDB_ColNames.ContactTouches,
		global.MongoDB_ColNames.TrackingLinks,
		// Observability collections
		global.MongoDB_ColNames.MetricExecutionLogs,
	}

	for _, name := range colNames {
		registered, err := global.RegistryCollections.Register(name, db.Collection(name))
		if err != nil {
			logrus.Errorf("Failed to register collection %s: %v", name, err)
			return err
		}

		if registered {
			logrus.Infof("Collection %s registered successfully", name)
		} else {
			logrus.Errorf("Collection %s already registered", name)
		}

	}

	// Đăng ký database vào registry để các service cần truy cập db-level dùng chung
	if _, err := global.RegistryDatabase.Register(cfg.MongoDB_DBName_Data, db); err != nil {
		logrus.Errorf("Failed to register database %s: %v", cfg.MongoDB_DBName_Data, err)
		return err
	}

	return nil
}
