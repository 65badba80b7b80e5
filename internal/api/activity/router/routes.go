// Package router đăng ký các route read-only cho activity collections.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	activityhdl "sales_metrics/internal/api/activity/handler"
	apirouter "sales_metrics/internal/api/router"
)

// Register đăng ký tất cả route activity lên v1.
// Mỗi collection nhận bộ route đọc chuẩn: find, find-by-id, find-with-pagination, count.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	dialHandler, err := activityhdl.NewDialHandler()
	if err != nil {
		return fmt.Errorf("tạo DialHandler: %w", err)
	}
	appointmentHandler, err := activityhdl.NewAppointmentHandler()
	if err != nil {
		return fmt.Errorf("tạo AppointmentHandler: %w", err)
	}
	discoveryHandler, err := activityhdl.NewDiscoveryHandler()
	if err != nil {
		return fmt.Errorf("tạo DiscoveryHandler: %w", err)
	}
	dealHandler, err := activityhdl.NewDealHandler()
	if err != nil {
		return fmt.Errorf("tạo DealHandler: %w", err)
	}
	paymentHandler, err := activityhdl.NewPaymentHandler()
	if err != nil {
		return fmt.Errorf("tạo PaymentHandler: %w", err)
	}
	touchHandler, err := activityhdl.NewTouchHandler()
	if err != nil {
		return fmt.Errorf("tạo TouchHandler: %w", err)
	}
	linkHandler, err := activityhdl.NewTrackingLinkHandler()
	if err != nil {
		return fmt.Errorf("tạo TrackingLinkHandler: %w", err)
	}

	// Dials là collection lớn nhất, chỉ cho phép đọc có phân trang
	r.RegisterReadRoutes(v1, "/activities/dials", dialHandler, apirouter.ListOnlyConfig)
	r.RegisterReadRoutes(v1, "/activities/appointments", appointmentHandler, apirouter.ReadOnlyConfig)
	r.RegisterReadRoutes(v1, "/activities/discoveries", discoveryHandler, apirouter.ReadOnlyConfig)
	r.RegisterReadRoutes(v1, "/activities/deals", dealHandler, apirouter.ReadOnlyConfig)
	r.RegisterReadRoutes(v1, "/activities/payments", paymentHandler, apirouter.ReadOnlyConfig)
	r.RegisterReadRoutes(v1, "/activities/touches", touchHandler, apirouter.ListOnlyConfig)
	r.RegisterReadRoutes(v1, "/tracking-links", linkHandler, apirouter.ReadOnlyConfig)

	return nil
}
