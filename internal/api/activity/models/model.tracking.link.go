// Package models - TrackingLink (tracking_links).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingLink lưu một tracking link dùng để gắn nguồn acquisition (tracking_links).
type TrackingLink struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`

	Slug string `json:"slug" bson:"slug"` // Unique trong phạm vi account
	Name string `json:"name" bson:"name"`

	UtmSource   string `json:"utmSource,omitempty" bson:"utmSource,omitempty"`
	UtmMedium   string `json:"utmMedium,omitempty" bson:"utmMedium,omitempty"`
	UtmCampaign string `json:"utmCampaign,omitempty" bson:"utmCampaign,omitempty"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
