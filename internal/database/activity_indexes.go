// Package database - Kết nối MongoDB và index cho các activity collections.
package database

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sales_metrics/internal/global"
)

// CreateActivityIndexes tạo các index cho activity collections và các collection
// phụ trợ của metric engine. Mọi query của engine đều filter theo accountId
// trước, nên accountId luôn là khóa đầu của compound index.
func CreateActivityIndexes(ctx context.Context, db *mongo.Database) error {
	// activity_dials: (accountId, dialedAt) — match chính của engine
	dials := db.Collection(global.MongoDB_ColNames.ActivityDials)
	if _, err := dials.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "dialedAt", Value: 1},
		},
		Options: options.Index().SetName("dial_account_time"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_dials: (accountId, actorUserId, dialedAt) — user metrics
	if _, err := dials.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "actorUserId", Value: 1},
			{Key: "dialedAt", Value: 1},
		},
		Options: options.Index().SetName("dial_account_actor_time"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_appointments: (accountId, bookedAt)
	appointments := db.Collection(global.MongoDB_ColNames.ActivityAppointments)
	if _, err := appointments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "bookedAt", Value: 1},
		},
		Options: options.Index().SetName("appointment_account_booked"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_appointments: (accountId, setterUserId, bookedAt) — setter metrics
	if _, err := appointments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "setterUserId", Value: 1},
			{Key: "bookedAt", Value: 1},
		},
		Options: options.Index().SetName("appointment_account_setter_booked"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_appointments: (accountId, salesRepUserId, bookedAt) — rep metrics
	if _, err := appointments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "salesRepUserId", Value: 1},
			{Key: "bookedAt", Value: 1},
		},
		Options: options.Index().SetName("appointment_account_rep_booked"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_appointments: (accountId, linkId) sparse — acquisition breakdown
	if _, err := appointments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "linkId", Value: 1},
		},
		Options: options.Index().SetName("appointment_account_link").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_discoveries: (accountId, bookedAt)
	discoveries := db.Collection(global.MongoDB_ColNames.ActivityDiscoveries)
	if _, err := discoveries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "bookedAt", Value: 1},
		},
		Options: options.Index().SetName("discovery_account_booked"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_deals: (accountId, closedAt)
	deals := db.Collection(global.MongoDB_ColNames.ActivityDeals)
	if _, err := deals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "closedAt", Value: 1},
		},
		Options: options.Index().SetName("deal_account_closed"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_deals: (accountId, status, closedAt) — won/lost filters
	if _, err := deals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "status", Value: 1},
			{Key: "closedAt", Value: 1},
		},
		Options: options.Index().SetName("deal_account_status_closed"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// activity_payments: (accountId, paidAt)
	payments := db.Collection(global.MongoDB_ColNames.ActivityPayments)
	if _, err := payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "paidAt", Value: 1},
		},
		Options: options.Index().SetName("payment_account_paid"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// contact_touches: (accountId, contactId, touchedAt) — last-touch attribution
	touches := db.Collection(global.MongoDB_ColNames.ContactTouches)
	if _, err := touches.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "contactId", Value: 1},
			{Key: "touchedAt", Value: 1},
		},
		Options: options.Index().SetName("touch_account_contact_time"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// tracking_links: (accountId, slug) unique — resolve link theo slug
	links := db.Collection(global.MongoDB_ColNames.TrackingLinks)
	if _, err := links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "accountId", Value: 1},
			{Key: "slug", Value: 1},
		},
		Options: options.Index().SetName("link_account_slug").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// metric_execution_logs: (createdAt) — cleanup worker xóa theo tuổi
	execLogs := db.Collection(global.MongoDB_ColNames.MetricExecutionLogs)
	if _, err := execLogs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("execlog_created"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
