// Package models - ActivityDiscovery (activity_discoveries).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityDiscovery lưu một discovery call đã được book (activity_discoveries).
// Discovery là bước sơ vấn trước appointment chính, cùng vòng đời với appointment.
type ActivityDiscovery struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`

	SetterUserID   primitive.ObjectID `json:"setterUserId" bson:"setterUserId"`
	SalesRepUserID primitive.ObjectID `json:"salesRepUserId,omitempty" bson:"salesRepUserId,omitempty"`

	BookedAt int64 `json:"bookedAt" bson:"bookedAt"`
	HeldAt   int64 `json:"heldAt,omitempty" bson:"heldAt,omitempty"` // 0 = chưa held

	Status string `json:"status" bson:"status"` // scheduled | held | no_show | cancelled

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
