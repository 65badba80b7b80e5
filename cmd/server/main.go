package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v3"

	metricsvc "sales_metrics/internal/api/metrics/service"
	"sales_metrics/internal/global"
	"sales_metrics/internal/logger"
	"sales_metrics/internal/worker"
)

// initLogger khởi tạo và cấu hình logger cho toàn bộ ứng dụng
func initLogger() {
	// Khởi tạo logger với cấu hình mặc định
	// Logger sẽ tự động đọc environment variables để cấu hình
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Log thông tin khởi tạo bằng logger mới
	log := logger.GetAppLogger()
	log.Info("Logger system initialized successfully")
}

// main_thread khởi tạo và chạy Fiber server
func main_thread(engines *MetricEngines) {
	// Khởi tạo app với cấu hình
	app := InitFiberApp(engines)

	// Khởi động server với cấu hình listen
	cfg := global.ServerConfig
	address := cfg.Address

	log := logger.GetAppLogger()
	log.Info("Starting Fiber server...")

	// Helper function để resolve đường dẫn từ thư mục gốc dự án
	resolvePath := func(path string) string {
		if filepath.IsAbs(path) {
			return path
		}
		currentDir, err := os.Getwd()
		if err != nil {
			return path
		}
		for {
			envDir := filepath.Join(currentDir, "config", "env")
			if _, err := os.Stat(envDir); err == nil {
				return filepath.Join(currentDir, path)
			}
			parentDir := filepath.Dir(currentDir)
			if parentDir == currentDir {
				return path
			}
			currentDir = parentDir
		}
	}

	// Kiểm tra xem có bật TLS không
	if cfg.EnableTLS && cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		// Resolve đường dẫn certificate và key
		certPath := resolvePath(cfg.TLSCertFile)
		keyPath := resolvePath(cfg.TLSKeyFile)

		// Kiểm tra file certificate và key tồn tại
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			log.Fatalf("TLS certificate file not found: %s (resolved from: %s)", certPath, cfg.TLSCertFile)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			log.Fatalf("TLS key file not found: %s (resolved from: %s)", keyPath, cfg.TLSKeyFile)
		}

		// Load certificate và key
		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			log.Fatalf("Error loading TLS certificate: %v", err)
		}

		// Tạo listener với TLS
		ln, err := net.Listen("tcp", address)
		if err != nil {
			log.Fatalf("Error creating listener: %v", err)
		}

		// Cấu hình TLS
		tlsConfig := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}

		// Wrap listener với TLS
		tlsListener := tls.NewListener(ln, tlsConfig)

		log.WithFields(map[string]interface{}{
			"address": address,
			"cert":    certPath,
			"key":     keyPath,
		}).Info("Starting server with HTTPS/TLS")

		// Khởi động server với TLS listener
		if err := app.Listener(tlsListener); err != nil {
			log.Fatalf("Error in Fiber Listener with TLS: %v", err)
		}
	} else {
		// Khởi động server HTTP thông thường
		log.WithFields(map[string]interface{}{
			"address":  address,
			"protocol": "HTTP",
		}).Info("Starting server with HTTP")

		listenConfig := fiber.ListenConfig{}
		if err := app.Listen(address, listenConfig); err != nil {
			log.Fatalf("Error in Fiber Listen: %v", err)
		}
	}
}

// Hàm main
func main() {
	// Khởi tạo logger
	initLogger()

	// Khởi tạo các biến toàn cục
	InitGlobal()

	// Khởi tạo registry
	InitRegistry()

	// Khởi tạo indexes cho các collection activity
	InitData()

	// Khởi tạo các engine của metric service
	engines := InitMetricEngines()

	log := logger.GetAppLogger()

	// Khởi tạo và chạy worker dọn execution logs (background worker)
	cfg := global.ServerConfig
	cleanupWorker, err := worker.NewExecutionLogCleanupWorker(
		time.Duration(cfg.ExecutionLog_CleanupInterval)*time.Second,
		cfg.ExecutionLog_RetentionDays,
	)
	if err != nil {
		log.WithError(err).Error("Failed to create execution log cleanup worker, continuing without cleanup worker")
	} else {
		// Tạo context với cancel để có thể dừng worker khi cần
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Chạy worker trong goroutine riêng với recover
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(map[string]interface{}{
						"panic": r,
					}).Error("🧹 [EXECLOG_CLEANUP] Worker goroutine panic")
				}
			}()

			log.Info("🧹 [EXECLOG_CLEANUP] Starting execution log cleanup worker...")
			cleanupWorker.Start(ctx)
			log.Warn("🧹 [EXECLOG_CLEANUP] Worker đã dừng (có thể do context cancelled)")
		}()
	}

	// Chạy Fiber server trên main thread
	main_thread(engines)
}

// MetricEngines gom các engine đã được wire sẵn để truyền vào tầng API
type MetricEngines struct {
	Engine  *metricsvc.MetricsEngine
	ExecLog *metricsvc.ExecutionLogService
}

// InitMetricEngines dựng metric catalog, query executor và engine từ cấu hình server.
// Catalog là immutable sau khi dựng: mọi request đọc chung một catalog.
func InitMetricEngines() *MetricEngines {
	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	// Timezone dùng để chia period buckets (daily/weekly/monthly)
	loc, err := time.LoadLocation(cfg.Metrics_Timezone)
	if err != nil {
		log.Warnf("Invalid METRICS_TIMEZONE %q, falling back to UTC: %v", cfg.Metrics_Timezone, err)
		loc = time.UTC
	}

	catalog := metricsvc.DefaultCatalog()
	executor := metricsvc.NewMongoQueryExecutor()
	engine := metricsvc.NewMetricsEngine(catalog, executor, loc, cfg.Metrics_MaxConcurrency)

	// Execution log service: không có cũng không chặn server, chỉ mất audit trail
	execLog, err := metricsvc.NewExecutionLogService()
	if err != nil {
		log.WithError(err).Warn("Failed to initialize execution log service, metric executions will not be audited")
		execLog = nil
	}

	log.Infof("Metric engines initialized: %d metrics in catalog, timezone=%s, maxConcurrency=%d",
		catalog.Count(), loc.String(), cfg.Metrics_MaxConcurrency)

	return &MetricEngines{
		Engine:  engine,
		ExecLog: execLog,
	}
}
