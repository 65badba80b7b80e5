// Package metricsvc - Test Compare-Mode Resolver: attribution, dedup, pair.
package metricsvc

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/global"
)

func newTestCompareEngine(fake *fakeExecutor) *CompareEngine {
	return NewCompareEngine(newTestEngine(fake))
}

// seedAttributionScenario: contact được cả setter1 lẫn setter2 touch trước
// khi booking xảy ra; trên row appointment chỉ stamp setter1.
func seedAttributionScenario(fake *fakeExecutor, accountID primitive.ObjectID) (setter1, setter2 primitive.ObjectID) {
	setter1 = primitive.NewObjectID()
	setter2 = primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake.add(global.MongoDB_ColNames.ContactTouches,
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter1, "touchedAt": ms("2024-01-02")},
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter2, "touchedAt": ms("2024-01-03")},
	)
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": ms("2024-01-05"), "setterUserId": setter1})
	return setter1, setter2
}

func TestCompare_PrimaryCreditsStampedSetter(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	setter1, setter2 := seedAttributionScenario(fake, accountID)

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionPrimary,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	values := map[string]float64{}
	for _, row := range resp.Rows {
		values[row.SetterID] = row.Value
	}
	if values[setter1.Hex()] != 1 {
		t.Errorf("Primary phải credit setter stamp trên row (setter1=1), có: %v", values)
	}
	if values[setter2.Hex()] != 0 {
		t.Errorf("Primary không được credit setter chỉ có touch (setter2=0), có: %v", values)
	}
}

func TestCompare_LastTouchCreditsLatestToucherBeforeBooking(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	setter1, setter2 := seedAttributionScenario(fake, accountID)

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionLastTouch,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	values := map[string]float64{}
	for _, row := range resp.Rows {
		values[row.SetterID] = row.Value
	}
	// Touch của setter2 (01-03) muộn hơn setter1 (01-02) và trước booking
	if values[setter2.Hex()] != 1 || values[setter1.Hex()] != 0 {
		t.Errorf("Last touch phải credit setter2 (touch muộn nhất trước booking), có: %v", values)
	}
}

func TestCompare_LastTouchIgnoresTouchAtOrAfterBooking(t *testing.T) {
	accountID := primitive.NewObjectID()
	setter1 := primitive.NewObjectID()
	setter2 := primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake := newFakeExecutor()
	bookedAt := ms("2024-01-05")
	fake.add(global.MongoDB_ColNames.ContactTouches,
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter1, "touchedAt": ms("2024-01-02")},
		// Touch đúng thời điểm booking: không được tính (strictly before)
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter2, "touchedAt": bookedAt},
	)
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": bookedAt, "setterUserId": setter2})

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionLastTouch,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	values := map[string]float64{}
	for _, row := range resp.Rows {
		values[row.SetterID] = row.Value
	}
	if values[setter1.Hex()] != 1 {
		t.Errorf("Touch tại thời điểm booking phải bị bỏ, credit về setter1, có: %v", values)
	}
}

func TestCompare_LastTouchTieBreakByInsertionOrder(t *testing.T) {
	accountID := primitive.NewObjectID()
	setter1 := primitive.NewObjectID()
	setter2 := primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake := newFakeExecutor()
	touchedAt := ms("2024-01-02")
	// Hai touch trùng timestamp: tie-break theo _id tăng dần (thứ tự insert),
	// touch insert sau thắng - deterministic
	fake.add(global.MongoDB_ColNames.ContactTouches,
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter1, "touchedAt": touchedAt, "_id": primitive.NewObjectID()},
	)
	fake.add(global.MongoDB_ColNames.ContactTouches,
		bson.M{"accountId": accountID, "contactId": contact, "setterUserId": setter2, "touchedAt": touchedAt, "_id": primitive.NewObjectID()},
	)
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": ms("2024-01-05"), "setterUserId": setter1})

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionLastTouch,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	values := map[string]float64{}
	for _, row := range resp.Rows {
		values[row.SetterID] = row.Value
	}
	if values[setter2.Hex()] != 1 {
		t.Errorf("Trùng timestamp phải tie-break theo _id tăng dần (setter2 insert sau thắng), có: %v", values)
	}
}

func TestCompare_AssistTotalExceedsPrimary(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	seedAttributionScenario(fake, accountID)
	engine := newTestCompareEngine(fake)

	filter := testFilter(accountID, "2024-01-01", "2024-01-31")

	primary, err := engine.Calculate(context.Background(), CompareRequest{
		MetricName: "total_appointments", Filter: filter,
		Scope: CompareScopeSetter, AttributionMode: AttributionPrimary,
	})
	if err != nil {
		t.Fatalf("Calculate primary lỗi: %v", err)
	}
	assist, err := engine.Calculate(context.Background(), CompareRequest{
		MetricName: "total_appointments", Filter: filter,
		Scope: CompareScopeSetter, AttributionMode: AttributionAssist,
	})
	if err != nil {
		t.Fatalf("Calculate assist lỗi: %v", err)
	}

	var primaryTotal, assistTotal float64
	for _, row := range primary.Rows {
		primaryTotal += row.Value
	}
	for _, row := range assist.Rows {
		assistTotal += row.Value
	}

	// Multi-touch crediting chủ đích: một outcome tính cho nhiều setter,
	// nên tổng assist PHẢI lớn hơn tổng primary ở scenario này - assert
	// chiều bất đẳng thức, không phải bằng nhau
	if !(assistTotal > primaryTotal) {
		t.Errorf("Tổng assist (%v) phải lớn hơn tổng primary (%v)", assistTotal, primaryTotal)
	}
	if assistTotal != 2 || primaryTotal != 1 {
		t.Errorf("Scenario này: assist=2 (hai setter cùng credit), primary=1; có assist=%v primary=%v", assistTotal, primaryTotal)
	}
}

func TestCompare_NoSetterGoesToInboundBucket(t *testing.T) {
	accountID := primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake := newFakeExecutor()
	// Appointment không có setter stamp và contact chưa từng được touch
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": ms("2024-01-05")})

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionLastTouch,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	found := false
	for _, row := range resp.Rows {
		if row.SetterID == "" {
			found = true
			if row.Value != 1 {
				t.Errorf("Bucket inbound phải có value 1, có: %v", row.Value)
			}
			if row.Label != "Inbound" {
				t.Errorf("Bucket inbound phải có label Inbound, có: %s", row.Label)
			}
		}
	}
	if !found {
		t.Error("Outcome không có setter phải rơi vào bucket inbound")
	}
}

func TestCompare_PairScopeCrossProduct(t *testing.T) {
	accountID := primitive.NewObjectID()
	setter1 := primitive.NewObjectID()
	setter2 := primitive.NewObjectID()
	rep1 := primitive.NewObjectID()
	rep2 := primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": ms("2024-01-05"), "setterUserId": setter1, "salesRepUserId": rep1})

	filter := testFilter(accountID, "2024-01-01", "2024-01-31")
	filter.SetterIDs = []primitive.ObjectID{setter1, setter2}
	filter.RepIDs = []primitive.ObjectID{rep1, rep2}

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          filter,
		Scope:           CompareScopePair,
		AttributionMode: AttributionPrimary,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	// |setters| × |reps| = 4 dòng, kể cả cặp giá trị 0
	if len(resp.Rows) != 4 {
		t.Fatalf("Pair scope phải trả 2×2 = 4 dòng, có: %d", len(resp.Rows))
	}
	var nonZero int
	for _, row := range resp.Rows {
		if row.Value > 0 {
			nonZero++
			if row.SetterID != setter1.Hex() || row.RepID != rep1.Hex() {
				t.Errorf("Cặp duy nhất có giá trị phải là (setter1, rep1), có: (%s, %s)", row.SetterID, row.RepID)
			}
		}
	}
	if nonZero != 1 {
		t.Errorf("Chỉ một cặp có giá trị, có: %d", nonZero)
	}
}

func TestCompare_PairScopeNoSetterSelectedUsesInbound(t *testing.T) {
	accountID := primitive.NewObjectID()
	rep1 := primitive.NewObjectID()
	rep2 := primitive.NewObjectID()
	contact := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "contactId": contact, "bookedAt": ms("2024-01-05"), "salesRepUserId": rep1})

	filter := testFilter(accountID, "2024-01-01", "2024-01-31")
	filter.RepIDs = []primitive.ObjectID{rep1, rep2}

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          filter,
		Scope:           CompareScopePair,
		AttributionMode: AttributionPrimary,
	})
	if err != nil {
		t.Fatalf("Calculate lỗi: %v", err)
	}

	// Không chọn setter: max(|setters|, 1) × |reps| = 1 × 2 dòng inbound
	if len(resp.Rows) != 2 {
		t.Fatalf("Phải có 1×2 = 2 dòng bucket inbound, có: %d", len(resp.Rows))
	}
	for _, row := range resp.Rows {
		if row.SetterID != "" {
			t.Errorf("Không chọn setter thì mọi dòng là bucket inbound, có setterId: %s", row.SetterID)
		}
	}
}

func TestCompare_DedupSwitchesFilterDialRows(t *testing.T) {
	accountID := primitive.NewObjectID()
	setter := primitive.NewObjectID()
	rep := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		// Dial thường của setter
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-02"), "actorUserId": setter, "actorRole": "setter"},
		// Dial chốt booking ngay trong call - excludeInCallDials loại dòng này
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03"), "actorUserId": setter, "actorRole": "setter", "bookedSameCall": true},
		// Dial của rep - excludeRepDials loại dòng này
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-04"), "actorUserId": rep, "actorRole": "rep"},
	)

	engine := newTestCompareEngine(fake)
	base := CompareRequest{
		MetricName:      "total_dials",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionPrimary,
	}

	total := func(req CompareRequest) float64 {
		resp, err := engine.Calculate(context.Background(), req)
		if err != nil {
			t.Fatalf("Calculate lỗi: %v", err)
		}
		var sum float64
		for _, row := range resp.Rows {
			sum += row.Value
		}
		return sum
	}

	// Không dedup: 2 dial của setter + 1 dial của rep (bucket inbound vì
	// actor không phải setter)
	if got := total(base); got != 3 {
		t.Errorf("Không dedup phải thấy 3 dial, có: %v", got)
	}

	withInCall := base
	withInCall.ExcludeInCallDials = true
	if got := total(withInCall); got != 2 {
		t.Errorf("excludeInCallDials phải loại dial bookedSameCall (còn 2), có: %v", got)
	}

	withRep := base
	withRep.ExcludeRepDials = true
	if got := total(withRep); got != 2 {
		t.Errorf("excludeRepDials phải loại dial của rep (còn 2), có: %v", got)
	}

	both := base
	both.ExcludeInCallDials = true
	both.ExcludeRepDials = true
	if got := total(both); got != 1 {
		t.Errorf("Cả hai công tắc độc lập, bật cả hai còn 1 dial, có: %v", got)
	}
}

func TestCompare_RatioMetricDegradesToNumeratorWithWarning(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	setter1, _ := seedAttributionScenario(fake, accountID)
	// Hai dial là mẫu số của booking_rate: nếu engine tính tỉ lệ thì
	// setter1 sẽ là 0.5 thay vì count tử số
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-04"), "actorUserId": setter1, "actorRole": "setter"},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-04") + 1000, "actorUserId": setter1, "actorRole": "setter"},
	)

	resp, err := newTestCompareEngine(fake).Calculate(context.Background(), CompareRequest{
		MetricName:      "booking_rate",
		Filter:          testFilter(accountID, "2024-01-01", "2024-01-31"),
		Scope:           CompareScopeSetter,
		AttributionMode: AttributionPrimary,
	})
	if err != nil {
		t.Fatalf("Metric tỉ lệ phải degrade chứ không fail, Calculate lỗi: %v", err)
	}

	if resp.Warning == "" {
		t.Error("Metric tỉ lệ trong compare mode phải kèm Warning về degrade")
	}
	values := map[string]float64{}
	for _, row := range resp.Rows {
		values[row.SetterID] = row.Value
	}
	if values[setter1.Hex()] != 1 {
		t.Errorf("Compare metric tỉ lệ phải tính theo leg tử số (setter1 = 1 appointment, không phải ratio), có: %v", values)
	}
}

func TestCompare_InvalidScopeRejected(t *testing.T) {
	_, err := newTestCompareEngine(newFakeExecutor()).Calculate(context.Background(), CompareRequest{
		MetricName:      "total_appointments",
		Filter:          testFilter(primitive.NewObjectID(), "2024-01-01", "2024-01-31"),
		Scope:           "team",
		AttributionMode: AttributionPrimary,
	})
	if err == nil {
		t.Fatal("Scope lạ phải bị từ chối")
	}
}
