// Package models - ActivityAppointment (activity_appointments).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityAppointment lưu một appointment đã được book (activity_appointments).
type ActivityAppointment struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`

	SetterUserID   primitive.ObjectID `json:"setterUserId" bson:"setterUserId"`     // Setter được ghi nhận khi book (primary attribution)
	SalesRepUserID primitive.ObjectID `json:"salesRepUserId" bson:"salesRepUserId"` // Rep được assign cho appointment

	BookedAt    int64 `json:"bookedAt" bson:"bookedAt"`                 // Thời điểm book
	ScheduledAt int64 `json:"scheduledAt" bson:"scheduledAt"`           // Thời điểm hẹn diễn ra
	HeldAt      int64 `json:"heldAt,omitempty" bson:"heldAt,omitempty"` // Thời điểm thực sự diễn ra (0 = chưa held)

	Status string `json:"status" bson:"status"` // scheduled | held | no_show | cancelled

	// Acquisition: nguồn contact đến từ đâu, pipeline ingest stamp lên mọi
	// activity row để filter theo kênh hoạt động đồng nhất trên mọi collection.
	LinkID         primitive.ObjectID `json:"linkId,omitempty" bson:"linkId,omitempty"` // Tham chiếu tracking_links
	UtmSource      string             `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UtmMedium      string             `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UtmCampaign    string             `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`
	UtmContent     string             `json:"utmContent,omitempty" bson:"utmContent,omitempty"`
	UtmTerm        string             `json:"utmTerm,omitempty" bson:"utmTerm,omitempty"`
	SourceCategory string             `json:"sourceCategory,omitempty" bson:"sourceCategory,omitempty"`
	SpecificSource string             `json:"specificSource,omitempty" bson:"specificSource,omitempty"`
	SessionSource  string             `json:"sessionSource,omitempty" bson:"sessionSource,omitempty"`
	Referrer       string             `json:"referrer,omitempty" bson:"referrer,omitempty"`
	Fbclid         string             `json:"fbclid,omitempty" bson:"fbclid,omitempty"`
	Fbc            string             `json:"fbc,omitempty" bson:"fbc,omitempty"`
	Fbp            string             `json:"fbp,omitempty" bson:"fbp,omitempty"`
	Gclid          string             `json:"gclid,omitempty" bson:"gclid,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
