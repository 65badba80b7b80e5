// Package metricsvc - Test Execution Engine trên fake executor.
package metricsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
)

func newTestEngine(fake *fakeExecutor) *MetricsEngine {
	return NewMetricsEngine(DefaultCatalog(), fake, time.UTC, 4)
}

func testFilter(accountID primitive.ObjectID, startStr, endStr string) MetricFilter {
	start, end, err := ParseDateRange(startStr, endStr, time.UTC)
	if err != nil {
		panic(err)
	}
	return MetricFilter{AccountID: accountID, Start: start, End: end}
}

func ms(s string) int64 {
	return day(s).UnixMilli()
}

func TestExecute_TotalScopesTenant(t *testing.T) {
	accountA := primitive.NewObjectID()
	accountB := primitive.NewObjectID()

	fake := newFakeExecutor()
	// 10 appointment của account A trong tháng 1, 5 của account khác
	for i := 0; i < 10; i++ {
		fake.add(global.MongoDB_ColNames.ActivityAppointments,
			bson.M{"accountId": accountA, "bookedAt": ms("2024-01-05") + int64(i)})
	}
	for i := 0; i < 5; i++ {
		fake.add(global.MongoDB_ColNames.ActivityAppointments,
			bson.M{"accountId": accountB, "bookedAt": ms("2024-01-05") + int64(i)})
	}

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountA, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if result.Type != models.ResultTypeTotal {
		t.Fatalf("Type phải là total, có: %s", result.Type)
	}
	if result.Total == nil || result.Total.Value != 10 {
		t.Errorf("Value phải là 10 (chỉ tính account A), có: %+v", result.Total)
	}
}

func TestExecute_TotalDeterministic(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-03-04"), "durationSeconds": int64(60)},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-03-05"), "durationSeconds": int64(120)},
	)

	engine := newTestEngine(fake)
	req := MetricRequest{MetricName: "total_dials", Filter: testFilter(accountID, "2024-03-01", "2024-03-31")}

	first, err := engine.Execute(context.Background(), req, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	second, err := engine.Execute(context.Background(), req, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lần hai lỗi: %v", err)
	}
	if first.Total.Value != second.Total.Value {
		t.Errorf("Cùng input phải cho cùng output: %v != %v", first.Total.Value, second.Total.Value)
	}
}

func TestExecute_ChangeComparesPrecedingWindow(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	// Tháng 2: 3 dial. Tháng 1 (window liền trước cùng độ dài 29 ngày
	// của 2024-02): 1 dial rơi vào window đó.
	for i := 0; i < 3; i++ {
		fake.add(global.MongoDB_ColNames.ActivityDials,
			bson.M{"accountId": accountID, "dialedAt": ms("2024-02-10") + int64(i)})
	}
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-20")})

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(accountID, "2024-02-01", "2024-02-29"),
	}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if result.Total.Change == nil {
		t.Fatal("Total request phải kèm change so với window liền trước")
	}
	if *result.Total.Change != 2 {
		t.Errorf("Change phải là 3 - 1 = 2, có: %v", *result.Total.Change)
	}
}

func TestExecute_MetricNotFound(t *testing.T) {
	engine := newTestEngine(newFakeExecutor())
	_, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "does_not_exist",
		Filter:     testFilter(primitive.NewObjectID(), "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})

	if !errors.Is(err, common.ErrMetricNotFound) {
		t.Errorf("Metric lạ phải trả MetricNotFound, có: %v", err)
	}
}

func TestExecute_PercentIsRatioOfSums(t *testing.T) {
	// Setter A: 1 appointment / 1 dial (100%). Setter B: 1 / 9 (11%).
	// Average hai tỉ lệ = 55.6% là SAI; ratio của tổng = 2/10 = 0.2 mới đúng.
	accountID := primitive.NewObjectID()
	setterA := primitive.NewObjectID()
	setterB := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-02"), "actorUserId": setterA, "actorRole": "setter"})
	for i := 0; i < 9; i++ {
		fake.add(global.MongoDB_ColNames.ActivityDials,
			bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03") + int64(i), "actorUserId": setterB, "actorRole": "setter"})
	}
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": setterA},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-04"), "setterUserId": setterB},
	)

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "booking_rate",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if result.Total.Value != 0.2 {
		t.Errorf("booking_rate phải là 2/10 = 0.2 (ratio của tổng, không phải average các tỉ lệ), có: %v", result.Total.Value)
	}
}

func TestExecute_UnsupportedBreakdownDegradesWithWarning(t *testing.T) {
	accountID := primitive.NewObjectID()
	rep := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-02"), "actorUserId": rep, "actorRole": "rep"})

	engine := newTestEngine(fake)
	// total_dials không hỗ trợ breakdown link -> rơi về native (rep), không lỗi
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{VizType: models.VizTypeSeries, DynamicBreakdown: models.BreakdownLink})
	if err != nil {
		t.Fatalf("Breakdown không hỗ trợ phải degrade chứ không fail: %v", err)
	}

	if result.Warning == "" {
		t.Error("Degrade breakdown phải kèm warning")
	}
	if result.Breakdown != models.BreakdownRep {
		t.Errorf("Breakdown hiệu lực phải là native rep, có: %s", result.Breakdown)
	}
}

func TestExecute_TimeSeriesChronological(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-01")},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03")},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03") + 1000},
	)

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-03"),
	}, ExecuteOptions{VizType: models.VizTypeSeries, DynamicBreakdown: models.BreakdownTime, PeriodType: PeriodDaily})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if len(result.Series) != 3 {
		t.Fatalf("Phải có 3 bucket ngày, có: %d", len(result.Series))
	}
	wantKeys := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	wantValues := []float64{1, 0, 2}
	for i, p := range result.Series {
		if p.Key != wantKeys[i] {
			t.Errorf("Bucket %d phải là %s (chronological), có: %s", i, wantKeys[i], p.Key)
		}
		if p.Value != wantValues[i] {
			t.Errorf("Bucket %s phải có value %v, có: %v", p.Key, wantValues[i], p.Value)
		}
	}
}

func TestExecute_SetterBreakdownStableOrder(t *testing.T) {
	accountID := primitive.NewObjectID()
	setterA := primitive.NewObjectID()
	setterB := primitive.NewObjectID()

	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "setterUserId": setterB},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-03"), "setterUserId": setterA},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-04"), "setterUserId": setterA},
	)

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_appointments",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{VizType: models.VizTypeSeries, DynamicBreakdown: models.BreakdownSetter})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if len(result.Series) != 2 {
		t.Fatalf("Phải có 2 group setter, có: %d", len(result.Series))
	}
	// Thứ tự key tăng dần, không phụ thuộc thứ tự dữ liệu trả về
	if result.Series[0].Key > result.Series[1].Key {
		t.Errorf("Group phải sort theo key tăng dần: %s > %s", result.Series[0].Key, result.Series[1].Key)
	}
	total := result.Series[0].Value + result.Series[1].Value
	if total != 3 {
		t.Errorf("Tổng các group phải bằng 3, có: %v", total)
	}
}

func TestExecute_AvgIsSumOverCount(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-02"), "durationSeconds": int64(30)},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03"), "durationSeconds": int64(90)},
	)

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "avg_dial_duration",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}

	if result.Total.Value != 60 {
		t.Errorf("avg_dial_duration phải là (30+90)/2 = 60, có: %v", result.Total.Value)
	}
}

func TestExecute_DataSourceErrorSurfaced(t *testing.T) {
	fake := newFakeExecutor()
	fake.failSources[global.MongoDB_ColNames.ActivityDials] = true

	engine := newTestEngine(fake)
	_, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(primitive.NewObjectID(), "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})

	if !errors.Is(err, common.ErrDataSource) {
		t.Errorf("Lỗi truy vấn phải surface thành DataSourceError, có: %v", err)
	}
}

func TestExecute_LinkFilterScopesSource(t *testing.T) {
	accountID := primitive.NewObjectID()
	linkID := primitive.NewObjectID()
	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityAppointments,
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-02"), "linkId": linkID},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-03"), "linkId": primitive.NewObjectID()},
		bson.M{"accountId": accountID, "bookedAt": ms("2024-01-04")},
	)

	engine := newTestEngine(fake)
	filter := testFilter(accountID, "2024-01-01", "2024-01-31")
	filter.LinkID = linkID
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_appointments",
		Filter:     filter,
	}, ExecuteOptions{})
	if err != nil {
		t.Fatalf("Execute lỗi: %v", err)
	}
	if result.Total.Value != 1 {
		t.Errorf("Filter theo link chỉ đếm row stamp đúng linkId, phải là 1, có: %v", result.Total.Value)
	}

	// Dials không stamp linkId: filter theo link trên nguồn này là input lỗi
	_, err = engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     filter,
	}, ExecuteOptions{})
	if err == nil {
		t.Error("Filter theo link trên nguồn không có linkId phải bị từ chối")
	}
}

func TestExecute_TimeSeriesPeriodFailureIsolated(t *testing.T) {
	accountID := primitive.NewObjectID()
	fake := newFakeExecutor()
	fake.add(global.MongoDB_ColNames.ActivityDials,
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-01")},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03")},
		bson.M{"accountId": accountID, "dialedAt": ms("2024-01-03") + 1000},
	)
	// Chỉ bucket 2024-01-02 gặp lỗi datastore, hai bucket còn lại bình thường
	fake.failWhen = func(source string, filter bson.M) bool {
		window, ok := filter["dialedAt"].(bson.M)
		if !ok {
			return false
		}
		gte, ok := window["$gte"].(int64)
		return ok && gte == ms("2024-01-02")
	}

	engine := newTestEngine(fake)
	result, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(accountID, "2024-01-01", "2024-01-03"),
	}, ExecuteOptions{VizType: models.VizTypeSeries, DynamicBreakdown: models.BreakdownTime, PeriodType: PeriodDaily})
	if err != nil {
		t.Fatalf("Một bucket lỗi không được kéo đổ cả chuỗi, Execute lỗi: %v", err)
	}

	if len(result.Series) != 3 {
		t.Fatalf("Phải trả đủ 3 bucket kể cả bucket lỗi, có: %d", len(result.Series))
	}
	mid := result.Series[1]
	if mid.Error == "" {
		t.Error("Bucket lỗi phải mang diagnostic Error để phân biệt với 0 thật")
	}
	if mid.Value != 0 {
		t.Errorf("Bucket lỗi phải có value 0, có: %v", mid.Value)
	}
	if result.Series[0].Value != 1 || result.Series[0].Error != "" {
		t.Errorf("Bucket 2024-01-01 không được ảnh hưởng (value 1, không Error), có: %+v", result.Series[0])
	}
	if result.Series[2].Value != 2 || result.Series[2].Error != "" {
		t.Errorf("Bucket 2024-01-03 không được ảnh hưởng (value 2, không Error), có: %+v", result.Series[2])
	}
}

func TestExecute_MissingAccountRejected(t *testing.T) {
	engine := newTestEngine(newFakeExecutor())
	_, err := engine.Execute(context.Background(), MetricRequest{
		MetricName: "total_dials",
		Filter:     testFilter(primitive.NilObjectID, "2024-01-01", "2024-01-31"),
	}, ExecuteOptions{})

	if err == nil {
		t.Fatal("Thiếu accountId phải bị từ chối (scope tenant là bắt buộc)")
	}
}
