// Package models - Các model activity (dữ liệu nguồn của metric engine).
// Dữ liệu được ghi bởi pipeline ingest bên ngoài; API này chỉ đọc.
// Mọi timestamp lưu dạng epoch milliseconds.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityDial lưu một cuộc gọi dial của setter hoặc rep (activity_dials).
type ActivityDial struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	AccountID primitive.ObjectID `json:"accountId" bson:"accountId"`
	ContactID primitive.ObjectID `json:"contactId" bson:"contactId"`

	ActorUserID primitive.ObjectID `json:"actorUserId" bson:"actorUserId"` // User thực hiện cuộc gọi
	ActorRole   string             `json:"actorRole" bson:"actorRole"`     // setter | rep

	DialedAt        int64 `json:"dialedAt" bson:"dialedAt"`
	DurationSeconds int64 `json:"durationSeconds" bson:"durationSeconds"`
	Answered        bool  `json:"answered" bson:"answered"`

	// BookedSameCall: cuộc gọi này chốt được appointment ngay trong call.
	// Dùng bởi dedup switch loại "in-call dials" khỏi compare mode.
	BookedSameCall bool `json:"bookedSameCall" bson:"bookedSameCall"`
	// LedToBooking: cuộc gọi nằm trong chuỗi dẫn đến một booking sau đó.
	LedToBooking bool `json:"ledToBooking" bson:"ledToBooking"`

	CreatedAt int64 `json:"createdAt" bson:"createdAt"`
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"`
}
