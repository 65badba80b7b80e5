// Package models - ContactTouch (contact_touches).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactTouch lưu một lần setter chạm đến contact (contact_touches).
// Dùng cho last-touch và assist attribution trong compare mode.
type ContactTouch struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`

	SetterUserID primitive.ObjectID `json:"setterUserId" bson:"setterUserId"`

	TouchedAt int64  `json:"touchedAt" bson:"touchedAt"`
	Channel   string `json:"channel" bson:"channel"` // dial | sms | email | dm

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
}
