// Package activityhdl chứa HTTP handler read-only cho các activity collections.
// Mỗi collection có một BaseReadHandler riêng, scope theo account context.
package activityhdl

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	activitymodels "sales_metrics/internal/api/activity/models"
	basehdl "sales_metrics/internal/api/base/handler"
	basesvc "sales_metrics/internal/api/base/service"
	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
)

// getCollection lấy collection từ registry, lỗi nếu chưa được init
func getCollection(name string) (*mongo.Collection, error) {
	col, exists := global.RegistryCollections.Get(name)
	if !exists {
		return nil, fmt.Errorf("collection %s chưa được đăng ký: %w", name, common.ErrNotFound)
	}
	return col, nil
}

// NewDialHandler tạo read handler cho activity_dials
func NewDialHandler() (*basehdl.BaseReadHandler[activitymodels.ActivityDial], error) {
	col, err := getCollection(global.MongoDB_ColNames.ActivityDials)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ActivityDial](col), "dialedAt"), nil
}

// NewAppointmentHandler tạo read handler cho activity_appointments
func NewAppointmentHandler() (*basehdl.BaseReadHandler[activitymodels.ActivityAppointment], error) {
	col, err := getCollection(global.MongoDB_ColNames.ActivityAppointments)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ActivityAppointment](col), "bookedAt"), nil
}

// NewDiscoveryHandler tạo read handler cho activity_discoveries
func NewDiscoveryHandler() (*basehdl.BaseReadHandler[activitymodels.ActivityDiscovery], error) {
	col, err := getCollection(global.MongoDB_ColNames.ActivityDiscoveries)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ActivityDiscovery](col), "bookedAt"), nil
}

// NewDealHandler tạo read handler cho activity_deals
func NewDealHandler() (*basehdl.BaseReadHandler[activitymodels.ActivityDeal], error) {
	col, err := getCollection(global.MongoDB_ColNames.ActivityDeals)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ActivityDeal](col), "closedAt"), nil
}

// NewPaymentHandler tạo read handler cho activity_payments
func NewPaymentHandler() (*basehdl.BaseReadHandler[activitymodels.ActivityPayment], error) {
	col, err := getCollection(global.MongoDB_ColNames.ActivityPayments)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ActivityPayment](col), "paidAt"), nil
}

// NewTouchHandler tạo read handler cho contact_touches
func NewTouchHandler() (*basehdl.BaseReadHandler[activitymodels.ContactTouch], error) {
	col, err := getCollection(global.MongoDB_ColNames.ContactTouches)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.ContactTouch](col), "touchedAt"), nil
}

// NewTrackingLinkHandler tạo read handler cho tracking_links
func NewTrackingLinkHandler() (*basehdl.BaseReadHandler[activitymodels.TrackingLink], error) {
	col, err := getCollection(global.MongoDB_ColNames.TrackingLinks)
	if err != nil {
		return nil, err
	}
	return basehdl.NewBaseReadHandler(basesvc.NewReadServiceMongo[activitymodels.TrackingLink](col), "createdAt"), nil
}
