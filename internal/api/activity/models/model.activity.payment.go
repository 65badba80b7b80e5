// Package models - ActivityPayment (activity_payments).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityPayment lưu một khoản thanh toán đã thu (activity_payments).
// Một deal trả góp sinh nhiều payment; cash_collected theo period tính từ đây.
type ActivityPayment struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`
	DealID    primitive.ObjectID `json:"dealId" bson:"dealId"`

	SalesRepUserID primitive.ObjectID `json:"salesRepUserId" bson:"salesRepUserId"`

	Amount float64 `json:"amount" bson:"amount"`
	PaidAt int64   `json:"paidAt" bson:"paidAt"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
