// Package metricsvc - Execution Engine: resolve định nghĩa -> build filter ->
// group -> shape kết quả. Mọi tính toán đồng bộ trong request, engine không
// giữ cache và không tự đặt timeout - timeout là việc của tầng gọi.
package metricsvc

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
	"sales_metrics/internal/logger"
	"sales_metrics/internal/utility"
)

// MetricsEngine thực thi metric request trên QueryExecutor được inject.
type MetricsEngine struct {
	catalog        *Catalog
	exec           QueryExecutor
	loc            *time.Location
	maxConcurrency int
}

// NewMetricsEngine tạo engine với catalog và executor inject từ ngoài.
// loc nil mặc định UTC; maxConcurrency <= 0 mặc định 4.
func NewMetricsEngine(catalog *Catalog, exec QueryExecutor, loc *time.Location, maxConcurrency int) *MetricsEngine {
	if loc == nil {
		loc = time.UTC
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &MetricsEngine{
		catalog:        catalog,
		exec:           exec,
		loc:            loc,
		maxConcurrency: maxConcurrency,
	}
}

// Catalog trả catalog engine đang dùng (cho handler introspection).
func (e *MetricsEngine) Catalog() *Catalog {
	return e.catalog
}

// Location trả timezone engine dùng để parse ngày.
func (e *MetricsEngine) Location() *time.Location {
	return e.loc
}

// MetricRequest một lần gọi execute.
type MetricRequest struct {
	MetricName string
	Filter     MetricFilter
}

// ExecuteOptions các tùy chọn shaping kết quả.
type ExecuteOptions struct {
	VizType          string // total (mặc định) | series
	DynamicBreakdown string // Ghi đè breakdown native nếu metric hỗ trợ
	PeriodType       string // daily (mặc định) | weekly | monthly, cho series theo time
}

// Execute chạy một metric request và trả kết quả đã shape.
// Cùng input trên cùng datastore luôn cho cùng output.
func (e *MetricsEngine) Execute(ctx context.Context, req MetricRequest, opts ExecuteOptions) (*models.MetricResult, error) {
	def, err := e.catalog.GetMetric(req.MetricName)
	if err != nil {
		return nil, err
	}
	if req.Filter.AccountID.IsZero() {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			"Thiếu accountId: mọi truy vấn metric phải scope theo tenant",
			common.StatusBadRequest,
			map[string]interface{}{"metricName": req.MetricName},
		)
	}

	breakdown, warning := e.effectiveBreakdown(def, opts.DynamicBreakdown)

	vizType := opts.VizType
	if vizType == "" {
		vizType = models.VizTypeTotal
	}

	var result *models.MetricResult
	switch vizType {
	case models.VizTypeTotal:
		result, err = e.executeTotal(ctx, def, req.Filter)
	case models.VizTypeSeries:
		result, err = e.executeSeries(ctx, def, req.Filter, breakdown, opts.PeriodType)
	default:
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			"vizType không hợp lệ: "+vizType,
			common.StatusBadRequest,
			map[string]interface{}{"vizType": vizType},
		)
	}
	if err != nil {
		return nil, err
	}

	result.Warning = warning
	return result, nil
}

// effectiveBreakdown chọn breakdown hiệu lực: native của metric, hoặc
// dynamicBreakdown nếu metric khai báo hỗ trợ. Breakdown không hỗ trợ
// rơi về native kèm warning, không fail request.
func (e *MetricsEngine) effectiveBreakdown(def models.MetricDefinition, requested string) (string, string) {
	if requested == "" || requested == def.BreakdownType {
		return def.BreakdownType, ""
	}
	if utility.Contains(def.SupportedBreakdowns, requested) {
		return requested, ""
	}

	warning := "Breakdown '" + requested + "' không được metric '" + def.Name + "' hỗ trợ, dùng breakdown '" + def.BreakdownType + "'"
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"metric":    def.Name,
		"requested": requested,
		"native":    def.BreakdownType,
	}).Warn("Breakdown không hỗ trợ, fallback về native")
	return def.BreakdownType, warning
}

// ============================================================================
// TOTAL
// ============================================================================

// executeTotal tính giá trị scalar cộng delta so với khoảng liền trước
// cùng độ dài, cùng filter.
func (e *MetricsEngine) executeTotal(ctx context.Context, def models.MetricDefinition, f MetricFilter) (*models.MetricResult, error) {
	value, err := e.computeValue(ctx, def, f)
	if err != nil {
		return nil, err
	}

	prevFilter := f
	prevFilter.Start, prevFilter.End = precedingWindow(f.Start, f.End)
	prevValue, err := e.computeValue(ctx, def, prevFilter)
	if err != nil {
		return nil, err
	}

	change := value - prevValue
	return &models.MetricResult{
		Type:  models.ResultTypeTotal,
		Total: &models.TotalData{Value: value, Change: &change},
	}, nil
}

// precedingWindow trả khoảng liền trước cùng số ngày, kết thúc cuối ngày
// hôm trước start.
func precedingWindow(start time.Time, end time.Time) (time.Time, time.Time) {
	days := int(end.Sub(start).Hours()/24) + 1
	prevStart := start.AddDate(0, 0, -days)
	prevEnd := start.Add(-time.Millisecond)
	return prevStart, prevEnd
}

// computeValue tính giá trị cuối của metric trên một filter.
func (e *MetricsEngine) computeValue(ctx context.Context, def models.MetricDefinition, f MetricFilter) (float64, error) {
	num, den, err := e.computeRatioParts(ctx, def, f)
	if err != nil {
		return 0, err
	}
	return safeDiv(num, den), nil
}

// computeRatioParts trả (tử, mẫu) của metric: count/sum có mẫu 1,
// avg là (tổng, số lượng), percent là hai sub-count. Giữ hai phần riêng
// để kết hợp denominator-weighted khi gộp hai vai trò hoặc nhiều leg -
// không bao giờ average các tỉ lệ con.
func (e *MetricsEngine) computeRatioParts(ctx context.Context, def models.MetricDefinition, f MetricFilter) (float64, float64, error) {
	numMatch, err := BuildMatch(f, def.Leg)
	if err != nil {
		return 0, 0, err
	}

	if def.IsRatio() {
		num, _, err := e.computeParts(ctx, def.Leg, numMatch)
		if err != nil {
			return 0, 0, err
		}
		denMatch, err := BuildMatch(f, *def.Denominator)
		if err != nil {
			return 0, 0, err
		}
		den, _, err := e.computeParts(ctx, *def.Denominator, denMatch)
		if err != nil {
			return 0, 0, err
		}
		return num, den, nil
	}

	return e.computeParts(ctx, def.Leg, numMatch)
}

// computeParts chạy aggregate của một leg, trả (tử, mẫu).
func (e *MetricsEngine) computeParts(ctx context.Context, leg models.MetricLeg, match bson.M) (float64, float64, error) {
	switch leg.Agg {
	case models.AggCount:
		n, err := e.exec.Count(ctx, leg.Source, match)
		if err != nil {
			return 0, 0, err
		}
		return float64(n), 1, nil

	case models.AggSum:
		rows, err := e.exec.Aggregate(ctx, leg.Source, []bson.M{
			{"$match": match},
			{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$" + leg.FieldPath}}},
		})
		if err != nil {
			return 0, 0, err
		}
		if len(rows) == 0 {
			return 0, 1, nil
		}
		total, _ := utility.ToFloat64(rows[0]["total"])
		return total, 1, nil

	case models.AggAvg:
		rows, err := e.exec.Aggregate(ctx, leg.Source, []bson.M{
			{"$match": match},
			{"$group": bson.M{
				"_id":   nil,
				"total": bson.M{"$sum": "$" + leg.FieldPath},
				"count": bson.M{"$sum": 1},
			}},
		})
		if err != nil {
			return 0, 0, err
		}
		if len(rows) == 0 {
			return 0, 0, nil
		}
		total, _ := utility.ToFloat64(rows[0]["total"])
		count, _ := utility.ToFloat64(rows[0]["count"])
		return total, count, nil
	}

	return 0, 0, common.NewError(
		common.ErrCodeInternalServer,
		"Kiểu aggregate không hợp lệ: "+leg.Agg,
		common.StatusInternalServerError,
		nil,
	)
}

// safeDiv chia an toàn: mẫu 0 trả 0 thay vì NaN/Inf.
func safeDiv(num float64, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ============================================================================
// SERIES
// ============================================================================

// executeSeries shape kết quả dạng series: time bucket (chronological)
// hoặc group theo entity (key tăng dần, ổn định với caller).
func (e *MetricsEngine) executeSeries(ctx context.Context, def models.MetricDefinition, f MetricFilter, breakdown string, periodType string) (*models.MetricResult, error) {
	var points []models.SeriesPoint
	var err error

	switch breakdown {
	case models.BreakdownTime, models.BreakdownTotal:
		// Breakdown total với vizType series nghĩa là chuỗi theo thời gian
		points, err = e.timeSeries(ctx, def, f, periodType)
		breakdown = models.BreakdownTime
	default:
		points, err = e.groupSeries(ctx, def, f, breakdown)
	}
	if err != nil {
		return nil, err
	}

	return &models.MetricResult{
		Type:      models.ResultTypeSeries,
		Series:    points,
		Breakdown: breakdown,
	}, nil
}

// timeSeries tính metric một lần cho mỗi period bucket.
//
// Thiết kế "recompute từng period" là chủ đích: mỗi bucket được tính đúng
// như một request độc lập nên tính đúng đắn là hiển nhiên, đổi lại
// O(số period) round trip xuống datastore. Các bucket độc lập nhau nên
// chạy song song có giới hạn, kết quả ghi theo index để giữ nguyên thứ tự
// chronological.
func (e *MetricsEngine) timeSeries(ctx context.Context, def models.MetricDefinition, f MetricFilter, periodType string) ([]models.SeriesPoint, error) {
	if periodType == "" {
		periodType = PeriodDaily
	}
	periods, err := GeneratePeriods(f.Start, f.End, periodType)
	if err != nil {
		return nil, err
	}

	points := make([]models.SeriesPoint, len(periods))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for i, p := range periods {
		i, p := i, p
		g.Go(func() error {
			periodFilter := f
			periodFilter.Start = p.Start
			periodFilter.End = p.End

			point := models.SeriesPoint{Key: p.Key, Label: p.Label}
			value, err := e.computeValue(gctx, def, periodFilter)
			if err != nil {
				// Một period fail không kéo đổ cả chuỗi: giá trị 0 kèm
				// diagnostic để phân biệt với 0 thật
				point.Error = err.Error()
			} else {
				point.Value = value
			}
			points[i] = point
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Batch bị hủy giữa chừng: kết quả dở dang phải bị bỏ, không trả một phần
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// groupSeries group metric theo entity (rep/setter/link) bằng $group,
// một dòng mỗi group, sort theo key tăng dần.
func (e *MetricsEngine) groupSeries(ctx context.Context, def models.MetricDefinition, f MetricFilter, breakdown string) ([]models.SeriesPoint, error) {
	numParts, err := e.groupLegParts(ctx, def.Leg, f, breakdown)
	if err != nil {
		return nil, err
	}

	// Metric percent: group tử và mẫu riêng rồi chia theo key -
	// tỉ lệ của từng group là ratio hai count, không phải average
	var denCounts map[string]legParts
	if def.IsRatio() {
		denCounts, err = e.groupLegParts(ctx, *def.Denominator, f, breakdown)
		if err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(numParts))
	for k := range numParts {
		keys = append(keys, k)
	}
	if denCounts != nil {
		for k := range denCounts {
			if _, ok := numParts[k]; !ok {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	points := make([]models.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		var value float64
		if def.IsRatio() {
			value = safeDiv(numParts[k].num, denCounts[k].num)
		} else {
			value = safeDiv(numParts[k].num, numParts[k].den)
		}
		points = append(points, models.SeriesPoint{
			Key:   k,
			Label: groupLabel(k),
			Value: value,
		})
	}
	return points, nil
}

// legParts (tử, mẫu) của một group.
type legParts struct {
	num float64
	den float64
}

// groupLegParts chạy $group một leg theo field breakdown.
func (e *MetricsEngine) groupLegParts(ctx context.Context, leg models.MetricLeg, f MetricFilter, breakdown string) (map[string]legParts, error) {
	field := breakdownField(leg.Source, breakdown)
	if field == "" {
		return nil, common.NewError(
			common.ErrCodeMetricBreakdown,
			"Nguồn dữ liệu không hỗ trợ breakdown '"+breakdown+"': "+leg.Source,
			common.StatusBadRequest,
			map[string]interface{}{"source": leg.Source, "breakdown": breakdown},
		)
	}

	match, err := BuildMatch(f, leg)
	if err != nil {
		return nil, err
	}
	// Dials: group theo vai trò phải giới hạn đúng role của actor
	if models.SourceUsesActorRole[leg.Source] &&
		(breakdown == models.BreakdownSetter || breakdown == models.BreakdownRep) {
		match["actorRole"] = breakdown
	}

	group := bson.M{"_id": "$" + field}
	switch leg.Agg {
	case models.AggCount:
		group["num"] = bson.M{"$sum": 1}
	case models.AggSum:
		group["num"] = bson.M{"$sum": "$" + leg.FieldPath}
	case models.AggAvg:
		group["num"] = bson.M{"$sum": "$" + leg.FieldPath}
		group["den"] = bson.M{"$sum": 1}
	}

	rows, err := e.exec.Aggregate(ctx, leg.Source, []bson.M{
		{"$match": match},
		{"$group": group},
	})
	if err != nil {
		return nil, err
	}

	parts := make(map[string]legParts, len(rows))
	for _, row := range rows {
		key := formatGroupKey(row["_id"])
		num, _ := utility.ToFloat64(row["num"])
		den := 1.0
		if leg.Agg == models.AggAvg {
			den, _ = utility.ToFloat64(row["den"])
		}
		parts[key] = legParts{num: num, den: den}
	}
	return parts, nil
}

// formatGroupKey chuyển _id của $group thành key chuỗi ổn định.
func formatGroupKey(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		if id.IsZero() {
			return ""
		}
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return ""
}

// groupLabel nhãn hiển thị của một group key.
func groupLabel(key string) string {
	if key == "" {
		return "(không xác định)"
	}
	return key
}
