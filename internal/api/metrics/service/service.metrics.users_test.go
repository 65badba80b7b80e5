// Package metricsvc - Test User Metrics Engine: suy vai trò, gộp hai vai trò,
// batch best-effort per unit.
package metricsvc

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/global"
)

func newTestUserEngine(fake *fakeExecutor) *UserMetricsEngine {
	return NewUserMetricsEngine(newTestEngine(fake))
}

// filterMentionsUser kiểm tra filter có scope theo userID không (đệ quy
// qua $and và $in) - dùng để mô phỏng lỗi chỉ của một unit trong batch.
func filterMentionsUser(filter bson.M, userID primitive.ObjectID) bool {
	for _, v := range filter {
		switch val := v.(type) {
		case primitive.ObjectID:
			if val == userID {
				return true
			}
		case bson.M:
			if filterMentionsUser(val, userID) {
				return true
			}
		case []bson.M:
			for _, sub := range val {
				if filterMentionsUser(sub, userID) {
					return true
				}
			}
		case []primitive.ObjectID:
			for _, id := range val {
				if id == userID {
					return true
				}
			}
		}
	}
	return false
}

func TestCalculateForUsers_BothRoleCountInvariant(t *testing.T) {
	accountID := primitive.NewObjectID()
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()

	fake := newFakeExecutor()
	// User là setter trên 2 appointment, là rep trên 3 appointment khác
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": user, "salesRepUserId": other},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-03"), "setterUserId": user, "salesRepUserId": other},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-04"), "setterUserId": other, "salesRepUserId": user},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-05"), "setterUserId": other, "salesRepUserId": user},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-06"), "setterUserId": other, "salesRepUserId": user},
	)

	resp, err := newTestUserEngine(fake).CalculateForUsers(context.Background(), UserMetricsRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
		UserIDs:    []primitive.ObjectID{user},
	})
	if err != nil {
		t.Fatalf("CalculateForUsers lỗi: %v", err)
	}

	result := resp.Results[0]
	if result.Role != models.UserRoleBoth {
		t.Fatalf("Role phải là both, có: %s", result.Role)
	}
	if result.Breakdown == nil {
		t.Fatal("Role both phải kèm breakdown asSetter/asRep")
	}
	if result.Breakdown.AsSetter != 2 || result.Breakdown.AsRep != 3 {
		t.Errorf("Breakdown phải là asSetter=2, asRep=3, có: %+v", result.Breakdown)
	}
	// Bất biến metric count: asSetter + asRep == value
	if result.Breakdown.AsSetter+result.Breakdown.AsRep != result.Value {
		t.Errorf("asSetter(%v) + asRep(%v) phải bằng value(%v)",
			result.Breakdown.AsSetter, result.Breakdown.AsRep, result.Value)
	}
}

func TestCalculateForUsers_BothRoleRateIsDenominatorWeighted(t *testing.T) {
	accountID := primitive.NewObjectID()
	user := primitive.NewObjectID()

	fake := newFakeExecutor()
	// Vai setter: 1 appointment / 1 dial = 1.0
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": user})
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-02"), "actorUserId": user, "actorRole": "setter"})
	// Vai rep: 1 appointment / 3 dial = 0.333
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-03"), "salesRepUserId": user})
	for i := 0; i < 3; i++ {
		fake.add(global.MongoDB_ColNames.ActivityDials,
			bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03") + int64(i), "actorUserId": user, "actorRole": "rep"})
	}

	resp, err := newTestUserEngine(fake).CalculateForUsers(context.Background(), UserMetricsRequest{
		MetricName: "booking_rate",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
		UserIDs:    []primitive.ObjectID{user},
	})
	if err != nil {
		t.Fatalf("CalculateForUsers lỗi: %v", err)
	}

	result := resp.Results[0]
	if result.Role != models.UserRoleBoth {
		t.Fatalf("Role phải là both, có: %s", result.Role)
	}
	// Gộp theo trọng số mẫu số: (1+1)/(1+3) = 0.5,
	// KHÔNG phải average hai tỉ lệ (1.0 + 0.333)/2 = 0.667
	if result.Value != 0.5 {
		t.Errorf("Rate gộp phải là (1+1)/(1+3) = 0.5, có: %v", result.Value)
	}
}

func TestCalculateForUsers_SingleRoleAndNone(t *testing.T) {
	accountID := primitive.NewObjectID()
	setter := primitive.NewObjectID()
	idle := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": setter})

	resp, err := newTestUserEngine(fake).CalculateForUsers(context.Background(), UserMetricsRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
		UserIDs:    []primitive.ObjectID{setter, idle},
	})
	if err != nil {
		t.Fatalf("CalculateForUsers lỗi: %v", err)
	}

	if resp.Results[0].Role != models.UserRoleSetter || resp.Results[0].Value != 1 {
		t.Errorf("User setter phải có role setter, value 1: %+v", resp.Results[0])
	}
	if resp.Results[1].Role != models.UserRoleNone || resp.Results[1].Value != 0 {
		t.Errorf("User không có activity phải có role none, value 0: %+v", resp.Results[1])
	}
	if resp.Results[1].Error != "" {
		t.Error("Value 0 do không có activity không được gắn Error (phân biệt với unit fail)")
	}
}

func TestCalculateForUsers_PartialBatchFailure(t *testing.T) {
	accountID := primitive.NewObjectID()
	okUser := primitive.NewObjectID()
	badUser := primitive.NewObjectID()
	okUser2 := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": okUser},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-03"), "setterUserId": okUser2},
	)
	// Chỉ truy vấn scope theo badUser fail
	fake.failWhen = func(source string, filter bson.M) bool {
		return filterMentionsUser(filter, badUser)
	}

	resp, err := newTestUserEngine(fake).CalculateForUsers(context.Background(), UserMetricsRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
		UserIDs:    []primitive.ObjectID{okUser, badUser, okUser2},
	})
	if err != nil {
		t.Fatalf("Một unit fail không được làm fail cả batch: %v", err)
	}

	// Batch N user phải trả đủ N kết quả, đúng thứ tự vào
	if len(resp.Results) != 3 {
		t.Fatalf("Phải có đủ 3 kết quả, có: %d", len(resp.Results))
	}
	wantOrder := []primitive.ObjectID{okUser, badUser, okUser2}
	for i, want := range wantOrder {
		if resp.Results[i].UserID != want.Hex() {
			t.Errorf("Kết quả %d phải giữ thứ tự caller (%s), có: %s", i, want.Hex(), resp.Results[i].UserID)
		}
	}

	bad := resp.Results[1]
	if bad.Error == "" {
		t.Error("Unit fail phải có diagnostic Error để phân biệt với 0 thật")
	}
	if bad.Value != 0 {
		t.Errorf("Unit fail phải fallback value 0, có: %v", bad.Value)
	}
	if resp.Results[0].Error != "" || resp.Results[2].Error != "" {
		t.Error("Các unit khác không được bị ảnh hưởng")
	}
	if !resp.Partial {
		t.Error("Response phải đánh dấu Partial khi có unit fail")
	}
	if resp.ExecutionTimeMs < 0 {
		t.Error("ExecutionTimeMs phải không âm")
	}
}

func TestCalculateForUsers_CancelledContextDiscardsBatch(t *testing.T) {
	accountID := primitive.NewObjectID()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestUserEngine(newFakeExecutor()).CalculateForUsers(ctx, UserMetricsRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
		UserIDs:    []primitive.ObjectID{primitive.NewObjectID()},
	})
	if err == nil {
		t.Fatal("Batch với context đã hủy phải trả lỗi, kết quả dở dang phải bị bỏ")
	}
}
