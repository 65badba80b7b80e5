// Package metricsvc - Filter builder: dịch MetricFilter thành $match cụ thể
// cho từng leg (collection nguồn + field thời gian riêng của metric).
package metricsvc

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
)

// DateLayout định dạng ngày của API (YYYY-MM-DD, inclusive hai đầu).
const DateLayout = "2006-01-02"

// MetricFilter là bộ filter đã parse của một request, dùng chung cho mọi leg.
// AccountID và khoảng thời gian là bắt buộc - mọi truy vấn phải scope theo
// tenant, rò dữ liệu cross-tenant là lỗi đúng đắn nghiêm trọng.
type MetricFilter struct {
	AccountID primitive.ObjectID

	Start time.Time // 00:00:00.000 ngày đầu (timezone hệ thống)
	End   time.Time // 23:59:59.999 ngày cuối (inclusive)

	RepIDs    []primitive.ObjectID
	SetterIDs []primitive.ObjectID

	// LinkID: scope theo một tracking link (chỉ nguồn có linkId).
	LinkID primitive.ObjectID

	// Acquisition: field -> giá trị equality, đã whitelist ở tầng DTO.
	Acquisition map[string]string
}

// ParseDateRange parse cặp ngày YYYY-MM-DD theo timezone loc.
// start > end là InvalidRange. End trả về là cuối ngày (23:59:59.999).
func ParseDateRange(startStr string, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, common.NewError(
			common.ErrCodeMetricRange,
			"Ngày bắt đầu không hợp lệ: "+startStr,
			common.StatusBadRequest,
			map[string]interface{}{"start": startStr},
		)
	}
	end, err := time.ParseInLocation(DateLayout, endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, common.NewError(
			common.ErrCodeMetricRange,
			"Ngày kết thúc không hợp lệ: "+endStr,
			common.StatusBadRequest,
			map[string]interface{}{"end": endStr},
		)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, common.NewError(
			common.ErrCodeMetricRange,
			"Khoảng thời gian không hợp lệ: start phải <= end",
			common.StatusBadRequest,
			map[string]interface{}{"start": startStr, "end": endStr},
		)
	}

	endOfDay := end.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, endOfDay, nil
}

// roleScopeCondition dựng điều kiện "user(s) giữ vai trò role trên row"
// cho một collection nguồn. Trả nil khi nguồn không có field cho vai trò đó
// (vd setter trên payments).
func roleScopeCondition(source string, role string, ids []primitive.ObjectID) bson.M {
	var field string
	switch role {
	case models.UserRoleSetter:
		field = models.SetterFieldBySource[source]
	case models.UserRoleRep:
		field = models.RepFieldBySource[source]
	}
	if field == "" || len(ids) == 0 {
		return nil
	}

	cond := bson.M{field: bson.M{"$in": ids}}
	// Dials dùng chung actorUserId cho hai vai trò, phân biệt bằng actorRole
	if models.SourceUsesActorRole[source] {
		cond["actorRole"] = role
	}
	return cond
}

// BuildMatch dựng $match cho một leg: accountId + dateRange bắt buộc,
// điều kiện tĩnh của leg, rồi các filter tùy chọn AND với nhau
// (không bao giờ OR giữa các họ filter).
func BuildMatch(f MetricFilter, leg models.MetricLeg) (bson.M, error) {
	match := bson.M{
		"accountId": f.AccountID,
		leg.TimeField: bson.M{
			"$gte": f.Start.UnixMilli(),
			"$lte": f.End.UnixMilli(),
		},
	}
	for k, v := range leg.Match {
		match[k] = v
	}

	// Filter theo role đặt trong $and để không ghi đè nhau khi hai vai trò
	// cùng map về một field (dials).
	var ands []bson.M
	if len(f.SetterIDs) > 0 {
		cond := roleScopeCondition(leg.Source, models.UserRoleSetter, f.SetterIDs)
		if cond == nil {
			return nil, common.NewError(
				common.ErrCodeValidationInput,
				"Nguồn dữ liệu không hỗ trợ filter theo setter: "+leg.Source,
				common.StatusBadRequest,
				map[string]interface{}{"source": leg.Source},
			)
		}
		ands = append(ands, cond)
	}
	if len(f.RepIDs) > 0 {
		cond := roleScopeCondition(leg.Source, models.UserRoleRep, f.RepIDs)
		if cond == nil {
			return nil, common.NewError(
				common.ErrCodeValidationInput,
				"Nguồn dữ liệu không hỗ trợ filter theo rep: "+leg.Source,
				common.StatusBadRequest,
				map[string]interface{}{"source": leg.Source},
			)
		}
		ands = append(ands, cond)
	}
	if len(ands) > 0 {
		match["$and"] = ands
	}

	// Filter theo tracking link: chỉ các nguồn stamp linkId hỗ trợ.
	if !f.LinkID.IsZero() {
		linkField := models.LinkFieldBySource[leg.Source]
		if linkField == "" {
			return nil, common.NewError(
				common.ErrCodeValidationInput,
				"Nguồn dữ liệu không hỗ trợ filter theo tracking link: "+leg.Source,
				common.StatusBadRequest,
				map[string]interface{}{"source": leg.Source},
			)
		}
		match[linkField] = f.LinkID
	}

	// Acquisition equality: ingest stamp các field này lên activity row,
	// row thiếu field đơn giản là không khớp.
	for field, value := range f.Acquisition {
		if value != "" {
			match[field] = value
		}
	}

	return match, nil
}

// breakdownField trả field để $group theo breakdown trên một nguồn.
// Trả rỗng khi nguồn không hỗ trợ chiều đó.
func breakdownField(source string, breakdown string) string {
	switch breakdown {
	case models.BreakdownRep:
		return models.RepFieldBySource[source]
	case models.BreakdownSetter:
		return models.SetterFieldBySource[source]
	case models.BreakdownLink:
		return models.LinkFieldBySource[source]
	}
	return ""
}
