// Package models - Catalog tĩnh của metric engine.
// Danh sách metric là bất biến, nạp một lần lúc khởi động process.
package models

import (
	"go.mongodb.org/mongo-driver/bson"

	"sales_metrics/internal/global"
)

// SetterFieldBySource map collection nguồn -> field chứa setter id.
// Payments không có setter (tiền thu gắn với rep đang giữ deal).
var SetterFieldBySource = map[string]string{
	global.MongoDB_ColNames.ActivityDials:        "actorUserId",
	global.MongoDB_ColNames.ActivityAppointments: "setterUserId",
	global.MongoDB_ColNames.ActivityDiscoveries:  "setterUserId",
	global.MongoDB_ColNames.ActivityDeals:        "setterUserId",
	global.MongoDB_ColNames.ContactTouches:       "setterUserId",
}

// RepFieldBySource map collection nguồn -> field chứa rep id.
var RepFieldBySource = map[string]string{
	global.MongoDB_ColNames.ActivityDials:        "actorUserId",
	global.MongoDB_ColNames.ActivityAppointments: "salesRepUserId",
	global.MongoDB_ColNames.ActivityDiscoveries:  "salesRepUserId",
	global.MongoDB_ColNames.ActivityDeals:        "salesRepUserId",
	global.MongoDB_ColNames.ActivityPayments:     "salesRepUserId",
}

// SourceUsesActorRole: dials dùng chung field actorUserId cho cả hai vai trò,
// phân biệt bằng actorRole. Scope theo role trên dials phải thêm điều kiện
// actorRole tương ứng.
var SourceUsesActorRole = map[string]bool{
	global.MongoDB_ColNames.ActivityDials: true,
}

// LinkFieldBySource: các nguồn hỗ trợ breakdown theo tracking link.
var LinkFieldBySource = map[string]string{
	global.MongoDB_ColNames.ActivityAppointments: "linkId",
	global.MongoDB_ColNames.ActivityDeals:        "linkId",
}

// heldMatch: điều kiện "đã held" dùng chung cho appointment/discovery.
var heldMatch = bson.M{"heldAt": bson.M{"$gt": 0}}

// CatalogDefinitions là toàn bộ metric hệ thống hỗ trợ, theo thứ tự hiển thị.
// AllMetricNames trả đúng thứ tự khai báo ở đây.
var CatalogDefinitions = []MetricDefinition{
	// ---- count ----
	{
		Name:                "total_dials",
		DisplayName:         "Tổng cuộc gọi",
		Description:         "Số dial thực hiện trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDials,
			TimeField: "dialedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "total_appointments",
		DisplayName:         "Tổng appointment",
		Description:         "Số appointment được book trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownRep, BreakdownLink, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "bookedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "appointments_held",
		DisplayName:         "Appointment đã diễn ra",
		Description:         "Số appointment thực sự diễn ra (held) trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownRep, BreakdownLink, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "heldAt",
			Agg:       AggCount,
			Match:     heldMatch,
		},
	},
	{
		Name:                "total_discoveries",
		DisplayName:         "Tổng discovery",
		Description:         "Số discovery call được book trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDiscoveries,
			TimeField: "bookedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "discoveries_held",
		DisplayName:         "Discovery đã diễn ra",
		Description:         "Số discovery call thực sự diễn ra trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDiscoveries,
			TimeField: "heldAt",
			Agg:       AggCount,
			Match:     heldMatch,
		},
	},
	{
		Name:                "deals_closed",
		DisplayName:         "Deal đã chốt",
		Description:         "Số deal đi đến kết luận (won hoặc lost) trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownSetter, BreakdownLink, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggCount,
			Match:     bson.M{"status": bson.M{"$in": []string{"won", "lost"}}},
		},
	},
	{
		Name:                "deals_won",
		DisplayName:         "Deal thắng",
		Description:         "Số deal won trong khoảng thời gian",
		Unit:                UnitCount,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownSetter, BreakdownLink, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggCount,
			Match:     bson.M{"status": "won"},
		},
	},

	// ---- currency ----
	{
		Name:                "cash_collected",
		DisplayName:         "Tiền đã thu",
		Description:         "Tổng payment thu được trong khoảng thời gian",
		Unit:                UnitCurrency,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityPayments,
			TimeField: "paidAt",
			Agg:       AggSum,
			FieldPath: "amount",
		},
	},
	{
		Name:                "contract_value",
		DisplayName:         "Giá trị hợp đồng",
		Description:         "Tổng giá trị hợp đồng của các deal won trong khoảng thời gian",
		Unit:                UnitCurrency,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownSetter, BreakdownLink, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggSum,
			FieldPath: "valueAmount",
			Match:     bson.M{"status": "won"},
		},
	},
	{
		Name:                "avg_deal_size",
		DisplayName:         "Giá trị deal trung bình",
		Description:         "Giá trị hợp đồng trung bình trên mỗi deal won",
		Unit:                UnitCurrency,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggAvg,
			FieldPath: "valueAmount",
			Match:     bson.M{"status": "won"},
		},
	},

	// ---- percent: tỉ lệ hai sub-count, không bao giờ average các tỉ lệ ----
	{
		Name:                "booking_rate",
		DisplayName:         "Tỉ lệ booking",
		Description:         "Appointment book được trên mỗi dial",
		Unit:                UnitPercent,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "bookedAt",
			Agg:       AggCount,
		},
		Denominator: &MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDials,
			TimeField: "dialedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "show_rate",
		DisplayName:         "Tỉ lệ show",
		Description:         "Appointment held trên appointment book trong cùng khoảng thời gian",
		Unit:                UnitPercent,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownRep, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "bookedAt",
			Agg:       AggCount,
			Match:     heldMatch,
		},
		Denominator: &MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "bookedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "discovery_show_rate",
		DisplayName:         "Tỉ lệ show discovery",
		Description:         "Discovery held trên discovery book trong cùng khoảng thời gian",
		Unit:                UnitPercent,
		BreakdownType:       BreakdownSetter,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDiscoveries,
			TimeField: "bookedAt",
			Agg:       AggCount,
			Match:     heldMatch,
		},
		Denominator: &MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDiscoveries,
			TimeField: "bookedAt",
			Agg:       AggCount,
		},
	},
	{
		Name:                "close_rate",
		DisplayName:         "Tỉ lệ chốt",
		Description:         "Deal won trên appointment held",
		Unit:                UnitPercent,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggCount,
			Match:     bson.M{"status": "won"},
		},
		Denominator: &MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityAppointments,
			TimeField: "heldAt",
			Agg:       AggCount,
			Match:     heldMatch,
		},
	},

	// ---- duration ----
	{
		Name:                "avg_dial_duration",
		DisplayName:         "Thời lượng gọi trung bình",
		Description:         "Thời lượng trung bình của một dial (giây)",
		Unit:                UnitSeconds,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownSetter, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDials,
			TimeField: "dialedAt",
			Agg:       AggAvg,
			FieldPath: "durationSeconds",
		},
	},
	{
		Name:                "avg_sales_cycle",
		DisplayName:         "Chu kỳ bán trung bình",
		Description:         "Số ngày trung bình từ first touch đến khi chốt deal won",
		Unit:                UnitDays,
		BreakdownType:       BreakdownRep,
		SupportedBreakdowns: []string{BreakdownTotal, BreakdownRep, BreakdownTime},
		Leg: MetricLeg{
			Source:    global.MongoDB_ColNames.ActivityDeals,
			TimeField: "closedAt",
			Agg:       AggAvg,
			FieldPath: "salesCycleDays",
			Match:     bson.M{"status": "won"},
		},
	},
}
