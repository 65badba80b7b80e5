// Package metricsvc - Period bucketer: sinh dãy bucket thời gian liên tục,
// không chồng lấn, phủ kín range yêu cầu.
package metricsvc

import (
	"fmt"
	"time"

	"sales_metrics/internal/api/metrics/models"
	"sales_metrics/internal/common"
)

// Loại period được hỗ trợ.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly" // Tuần bắt đầu thứ Hai
	PeriodMonthly = "monthly"
)

// GeneratePeriods sinh dãy Period cho [start, end] theo granularity.
// start/end là mốc 00:00 của ngày (đã parse bằng ParseDateRange hoặc
// tương đương). Bucket đầu và cuối được clip vào range ngoài: không
// period nào vượt quá end.
//
// Bất biến: các period liên tục và phủ kín range - union của mọi
// [Start, End] đúng bằng range vào, không hở, không chồng lấn.
func GeneratePeriods(start time.Time, end time.Time, periodType string) ([]models.Period, error) {
	day := truncateToDay(start)
	endDay := truncateToDay(end)
	if endDay.Before(day) {
		return nil, common.NewError(
			common.ErrCodeMetricRange,
			"Khoảng thời gian không hợp lệ: start phải <= end",
			common.StatusBadRequest,
			nil,
		)
	}

	var periods []models.Period
	switch periodType {
	case PeriodDaily:
		for d := day; !d.After(endDay); d = d.AddDate(0, 0, 1) {
			periods = append(periods, newPeriod(d, d, d.Format(DateLayout), d.Format("02/01/2006")))
		}

	case PeriodWeekly:
		for cur := day; !cur.After(endDay); {
			// Chủ Nhật (Weekday 0) thuộc về tuần bắt đầu thứ Hai trước đó
			offset := (int(cur.Weekday()) + 6) % 7
			weekEnd := cur.AddDate(0, 0, 6-offset)
			if weekEnd.After(endDay) {
				weekEnd = endDay
			}
			label := fmt.Sprintf("Tuần %s - %s", cur.Format("02/01"), weekEnd.Format("02/01"))
			periods = append(periods, newPeriod(cur, weekEnd, cur.Format(DateLayout), label))
			cur = weekEnd.AddDate(0, 0, 1)
		}

	case PeriodMonthly:
		for cur := day; !cur.After(endDay); {
			monthEnd := time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, cur.Location()).
				AddDate(0, 1, -1)
			if monthEnd.After(endDay) {
				monthEnd = endDay
			}
			periods = append(periods, newPeriod(cur, monthEnd, cur.Format("2006-01"), "Tháng "+cur.Format("01/2006")))
			cur = monthEnd.AddDate(0, 0, 1)
		}

	default:
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			"Loại period không hợp lệ: "+periodType,
			common.StatusBadRequest,
			map[string]interface{}{"periodType": periodType},
		)
	}

	return periods, nil
}

// newPeriod tạo Period với End là cuối ngày endDay (inclusive).
func newPeriod(startDay time.Time, endDay time.Time, key string, label string) models.Period {
	return models.Period{
		Key:       key,
		Label:     label,
		StartDate: startDay.Format(DateLayout),
		EndDate:   endDay.Format(DateLayout),
		Start:     startDay,
		End:       endDay.AddDate(0, 0, 1).Add(-time.Millisecond),
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
