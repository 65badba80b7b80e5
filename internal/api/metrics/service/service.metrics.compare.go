// Package metricsvc - Compare-Mode Resolver: quyết định row nào tính cho
// entity nào trước khi tính metric, theo attribution mode và các công tắc
// de-duplication.
package metricsvc

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
	"sales_metrics/internal/utility"
)

// Scope so sánh.
const (
	CompareScopeSetter = "setter"
	CompareScopeRep    = "rep"
	CompareScopePair   = "pair" // Tích chéo setter × rep
)

// Attribution mode: quy tắc trao credit một outcome cho setter.
const (
	AttributionPrimary   = "primary"    // Setter stamp trên row lúc tạo
	AttributionLastTouch = "last_touch" // Touch gần nhất ngay trước booking
	AttributionAssist    = "assist"     // Mọi setter có touch trước booking
)

// CompareRequest một lần so sánh. SetterIDs/RepIDs trong Filter là tập
// entity được chọn đem so; rỗng nghĩa là mọi entity xuất hiện trong dữ liệu.
type CompareRequest struct {
	MetricName string
	Filter     MetricFilter

	Scope           string // setter | rep | pair
	AttributionMode string // primary | last_touch | assist

	// Hai công tắc dedup độc lập, chỉ tác dụng với nguồn dials.
	ExcludeInCallDials bool // Bỏ dial mà outcome là booking ngay trong call
	ExcludeRepDials    bool // Bỏ dial do rep thực hiện (không phải setter)

	// Entities: lựa chọn UI kèm tên/màu, chỉ dùng để gắn nhãn kết quả.
	Entities []models.CompareEntity
}

// CompareResponse kết quả so sánh.
// Với assist, tổng các row có thể lớn hơn tổng primary cùng window -
// đây là multi-touch crediting chủ đích, không phải double-count lỗi.
type CompareResponse struct {
	Scope           string              `json:"scope"`
	AttributionMode string              `json:"attributionMode"`
	Rows            []models.CompareRow `json:"rows"`
	Warning         string              `json:"warning,omitempty"`
}

// CompareEngine resolve attribution rồi tính metric theo entity.
type CompareEngine struct {
	engine *MetricsEngine
}

// NewCompareEngine tạo compare engine trên cùng executor/catalog.
func NewCompareEngine(engine *MetricsEngine) *CompareEngine {
	return &CompareEngine{engine: engine}
}

// Calculate chạy một compare request. Attribution chỉ resolve được trong Go
// (cần lịch sử touch có thứ tự), nên engine đọc row outcome thô một lần,
// resolve credit từng row, rồi cộng dồn theo entity.
func (ce *CompareEngine) Calculate(ctx context.Context, req CompareRequest) (*CompareResponse, error) {
	def, err := ce.engine.catalog.GetMetric(req.MetricName)
	if err != nil {
		return nil, err
	}
	if err := validateCompareEnums(req); err != nil {
		return nil, err
	}

	// Metric percent so theo leg tử số: tỉ lệ hai nguồn khác nhau không
	// resolve attribution từng row được, degrade thay vì fail
	leg := def.Leg
	warning := ""
	if def.IsRatio() {
		warning = "Metric '" + def.Name + "' là tỉ lệ, compare mode tính theo tử số (" + leg.Source + ")"
	}

	rows, err := ce.fetchOutcomeRows(ctx, req, leg)
	if err != nil {
		return nil, err
	}

	touches, err := ce.fetchTouches(ctx, req, rows)
	if err != nil {
		return nil, err
	}

	resp := &CompareResponse{
		Scope:           req.Scope,
		AttributionMode: req.AttributionMode,
		Warning:         warning,
	}
	resp.Rows = ce.accumulate(req, leg, rows, touches)
	return resp, nil
}

// validateCompareEnums kiểm tra scope và attribution mode.
func validateCompareEnums(req CompareRequest) error {
	switch req.Scope {
	case CompareScopeSetter, CompareScopeRep, CompareScopePair:
	default:
		return common.NewError(
			common.ErrCodeValidationInput,
			"Scope so sánh không hợp lệ: "+req.Scope,
			common.StatusBadRequest,
			map[string]interface{}{"scope": req.Scope},
		)
	}
	switch req.AttributionMode {
	case AttributionPrimary, AttributionLastTouch, AttributionAssist:
	default:
		return common.NewError(
			common.ErrCodeValidationInput,
			"Attribution mode không hợp lệ: "+req.AttributionMode,
			common.StatusBadRequest,
			map[string]interface{}{"attributionMode": req.AttributionMode},
		)
	}
	return nil
}

// fetchOutcomeRows đọc các row outcome trong window kèm điều kiện dedup.
// Filter setter/rep KHÔNG đưa vào query: attribution quyết định setter nào
// nhận credit nên việc giới hạn theo lựa chọn làm sau khi resolve.
func (ce *CompareEngine) fetchOutcomeRows(ctx context.Context, req CompareRequest, leg models.MetricLeg) ([]bson.M, error) {
	baseFilter := req.Filter
	baseFilter.SetterIDs = nil
	baseFilter.RepIDs = nil

	match, err := BuildMatch(baseFilter, leg)
	if err != nil {
		return nil, err
	}

	// Dedup lọc row khỏi query gốc trước khi group
	if models.SourceUsesActorRole[leg.Source] {
		if req.ExcludeInCallDials {
			match["bookedSameCall"] = bson.M{"$ne": true}
		}
		if req.ExcludeRepDials {
			match["actorRole"] = bson.M{"$ne": models.UserRoleRep}
		}
	}

	sortOrder := bson.D{{Key: leg.TimeField, Value: 1}, {Key: "_id", Value: 1}}
	return ce.engine.exec.Find(ctx, leg.Source, match, sortOrder, 0)
}

// fetchTouches đọc toàn bộ touch của các contact xuất hiện trong outcome,
// sort theo touchedAt rồi _id tăng dần. Hai touch trùng timestamp phân
// định bằng _id (thứ tự insert) - deterministic, không phụ thuộc thứ tự
// trả về của datastore.
func (ce *CompareEngine) fetchTouches(ctx context.Context, req CompareRequest, rows []bson.M) (map[string][]bson.M, error) {
	if req.AttributionMode == AttributionPrimary {
		return nil, nil
	}

	var contactIDs []primitive.ObjectID
	for _, row := range rows {
		if id, ok := row["contactId"].(primitive.ObjectID); ok {
			contactIDs = append(contactIDs, id)
		}
	}
	contactIDs = utility.Dedupe(contactIDs)
	if len(contactIDs) == 0 {
		return map[string][]bson.M{}, nil
	}

	filter := bson.M{
		"accountId": req.Filter.AccountID,
		"contactId": bson.M{"$in": contactIDs},
	}
	sortOrder := bson.D{{Key: "touchedAt", Value: 1}, {Key: "_id", Value: 1}}
	touches, err := ce.engine.exec.Find(ctx, global.MongoDB_ColNames.ContactTouches, filter, sortOrder, 0)
	if err != nil {
		return nil, err
	}

	byContact := make(map[string][]bson.M)
	for _, t := range touches {
		key := formatGroupKey(t["contactId"])
		byContact[key] = append(byContact[key], t)
	}
	return byContact, nil
}

// creditedSetters trả các setter nhận credit cho một outcome row.
// Slice rỗng nghĩa là bucket inbound/no-setter.
func creditedSetters(mode string, leg models.MetricLeg, row bson.M, touchesByContact map[string][]bson.M) []string {
	switch mode {
	case AttributionPrimary:
		if s := primarySetter(leg, row); s != "" {
			return []string{s}
		}
		return nil

	case AttributionLastTouch:
		// Touch muộn nhất có touchedAt < thời điểm outcome (strictly before)
		last := ""
		for _, t := range touchesBefore(leg, row, touchesByContact) {
			last = formatGroupKey(t["setterUserId"])
		}
		if last != "" {
			return []string{last}
		}
		return nil

	case AttributionAssist:
		// Mọi setter có touch trước outcome, mỗi setter một credit.
		// Một outcome cho nhiều setter là chủ đích - tổng assist qua các
		// setter được phép vượt tổng primary.
		var setters []string
		for _, t := range touchesBefore(leg, row, touchesByContact) {
			if s := formatGroupKey(t["setterUserId"]); s != "" {
				setters = append(setters, s)
			}
		}
		return utility.Dedupe(setters)
	}
	return nil
}

// touchesBefore các touch của contact trên row có touchedAt < mốc outcome,
// giữ nguyên thứ tự (touchedAt, _id) tăng dần.
func touchesBefore(leg models.MetricLeg, row bson.M, touchesByContact map[string][]bson.M) []bson.M {
	rowTime, _ := utility.ToInt64(row[leg.TimeField])
	contactKey := formatGroupKey(row["contactId"])

	var out []bson.M
	for _, t := range touchesByContact[contactKey] {
		touchedAt, _ := utility.ToInt64(t["touchedAt"])
		if touchedAt < rowTime {
			out = append(out, t)
		}
	}
	return out
}

// primarySetter setter stamp trên row lúc tạo. Với dials, actor chỉ là
// setter khi actorRole = setter.
func primarySetter(leg models.MetricLeg, row bson.M) string {
	if models.SourceUsesActorRole[leg.Source] {
		if role, _ := row["actorRole"].(string); role != models.UserRoleSetter {
			return ""
		}
	}
	field := models.SetterFieldBySource[leg.Source]
	if field == "" {
		return ""
	}
	return formatGroupKey(row[field])
}

// rowRep rep trên row (không bị attribution tác động).
func rowRep(leg models.MetricLeg, row bson.M) string {
	field := models.RepFieldBySource[leg.Source]
	if field == "" {
		return ""
	}
	if models.SourceUsesActorRole[leg.Source] {
		if role, _ := row["actorRole"].(string); role != models.UserRoleRep {
			return ""
		}
	}
	return formatGroupKey(row[field])
}

// contribution giá trị một row đóng góp: 1 với count, giá trị field với
// sum/avg. avg tính sum và count riêng theo entity rồi chia lúc cuối.
func contribution(leg models.MetricLeg, row bson.M) float64 {
	if leg.Agg == models.AggCount {
		return 1
	}
	v, _ := utility.ToFloat64(row[leg.FieldPath])
	return v
}

// accumulate cộng dồn giá trị theo entity rồi dựng bảng kết quả.
func (ce *CompareEngine) accumulate(req CompareRequest, leg models.MetricLeg, rows []bson.M, touchesByContact map[string][]bson.M) []models.CompareRow {
	type cell struct {
		sum   float64
		count float64
	}
	cells := make(map[string]*cell)
	add := func(key string, row bson.M) {
		c := cells[key]
		if c == nil {
			c = &cell{}
			cells[key] = c
		}
		c.sum += contribution(leg, row)
		c.count++
	}
	value := func(key string) float64 {
		c := cells[key]
		if c == nil {
			return 0
		}
		if leg.Agg == models.AggAvg {
			return safeDiv(c.sum, c.count)
		}
		return c.sum
	}

	setterSel := hexSet(req.Filter.SetterIDs)
	repSel := hexSet(req.Filter.RepIDs)
	nameByID := make(map[string]string, len(req.Entities))
	for _, ent := range req.Entities {
		if ent.Name != "" {
			nameByID[ent.ID] = ent.Name
		}
	}

	discoveredSetters := map[string]bool{}
	discoveredReps := map[string]bool{}

	for _, row := range rows {
		setters := creditedSetters(req.AttributionMode, leg, row, touchesByContact)
		rep := rowRep(leg, row)

		switch req.Scope {
		case CompareScopeSetter:
			if len(setters) == 0 {
				setters = []string{""} // Bucket inbound
			}
			for _, s := range setters {
				if len(setterSel) > 0 && !setterSel[s] {
					continue
				}
				discoveredSetters[s] = true
				add(s, row)
			}

		case CompareScopeRep:
			if len(repSel) > 0 && !repSel[rep] {
				continue
			}
			discoveredReps[rep] = true
			add(rep, row)

		case CompareScopePair:
			if len(setters) == 0 {
				setters = []string{""}
			}
			if len(repSel) > 0 && !repSel[rep] {
				continue
			}
			discoveredReps[rep] = true
			for _, s := range setters {
				if len(setterSel) > 0 && !setterSel[s] {
					continue
				}
				add(s+"|"+rep, row)
			}
		}
	}

	label := func(id string) string {
		if id == "" {
			return "Inbound"
		}
		if name, ok := nameByID[id]; ok {
			return name
		}
		return id
	}

	var out []models.CompareRow
	switch req.Scope {
	case CompareScopeSetter:
		for _, id := range entityKeys(req.Filter.SetterIDs, discoveredSetters) {
			out = append(out, models.CompareRow{
				SetterID: id, Label: label(id), Value: value(id),
			})
		}

	case CompareScopeRep:
		for _, id := range entityKeys(req.Filter.RepIDs, discoveredReps) {
			out = append(out, models.CompareRow{
				RepID: id, Label: label(id), Value: value(id),
			})
		}

	case CompareScopePair:
		// Tích chéo đầy đủ: |setters| × |reps| dòng, cả cặp giá trị 0.
		// Không chọn setter nào thì một bucket inbound duy nhất
		// (max(|setters|, 1) × |reps|).
		setterKeys := []string{""}
		if len(req.Filter.SetterIDs) > 0 {
			setterKeys = hexList(req.Filter.SetterIDs)
		}
		repKeys := entityKeys(req.Filter.RepIDs, discoveredReps)
		for _, s := range setterKeys {
			for _, r := range repKeys {
				out = append(out, models.CompareRow{
					SetterID: s,
					RepID:    r,
					Label:    label(s) + " × " + label(r),
					Value:    value(s + "|" + r),
				})
			}
		}
	}
	return out
}

// entityKeys danh sách entity đưa vào kết quả: tập được chọn giữ nguyên
// thứ tự caller, không chọn thì mọi entity phát hiện trong dữ liệu sort
// theo key tăng dần.
func entityKeys(selected []primitive.ObjectID, discovered map[string]bool) []string {
	if len(selected) > 0 {
		return hexList(selected)
	}
	keys := make([]string, 0, len(discovered))
	for k := range discovered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hexSet(ids []primitive.ObjectID) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id.Hex()] = true
	}
	return set
}

func hexList(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
