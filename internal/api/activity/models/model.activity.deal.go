// Package models - ActivityDeal (activity_deals).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityDeal lưu một deal đi qua closing call (activity_deals).
type ActivityDeal struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`

	SetterUserID   primitive.ObjectID `json:"setterUserId" bson:"setterUserId"`
	SalesRepUserID primitive.ObjectID `json:"salesRepUserId" bson:"salesRepUserId"`

	AppointmentID primitive.ObjectID `json:"appointmentId,omitempty" bson:"appointmentId,omitempty"` // Appointment dẫn đến deal

	Status   string `json:"status" bson:"status"`                         // open | won | lost
	ClosedAt int64  `json:"closedAt,omitempty" bson:"closedAt,omitempty"` // Thời điểm chốt (won hoặc lost)

	ValueAmount   float64 `json:"valueAmount" bson:"valueAmount"`     // Giá trị hợp đồng
	CashCollected float64 `json:"cashCollected" bson:"cashCollected"` // Tiền đã thu tại thời điểm chốt

	// SalesCycleDays: số ngày từ first touch đến khi chốt, pipeline ingest tính sẵn
	// để engine avg trực tiếp thay vì $subtract trong pipeline.
	SalesCycleDays float64 `json:"salesCycleDays,omitempty" bson:"salesCycleDays,omitempty"`

	// Acquisition copy từ appointment gốc (ingest stamp) để filter kênh trực tiếp trên deal.
	LinkID      primitive.ObjectID `json:"linkId,omitempty" bson:"linkId,omitempty"`
	UtmSource   string             `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UtmMedium   string             `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UtmCampaign string             `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`
	Gclid       string             `json:"gclid,omitempty" bson:"gclid,omitempty"`
	Fbclid      string             `json:"fbclid,omitempty" bson:"fbclid,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
