// Package metricsvc - Test period bucketer: liên tục, phủ kín, clip đúng.
package metricsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales_metrics/internal/api/metrics/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// assertContiguous kiểm tra bất biến: các period liên tục, không chồng lấn,
// phủ kín đúng [start, end].
func assertContiguous(t *testing.T, periods []models.Period, start, end time.Time) {
	t.Helper()
	require.NotEmpty(t, periods)

	assert.True(t, periods[0].Start.Equal(start), "period đầu phải bắt đầu đúng start của range")
	last := periods[len(periods)-1]
	expectedEnd := end.AddDate(0, 0, 1).Add(-time.Millisecond)
	assert.True(t, last.End.Equal(expectedEnd), "period cuối phải kết thúc đúng cuối ngày end, có: %v", last.End)

	for i := 1; i < len(periods); i++ {
		gap := periods[i].Start.Sub(periods[i-1].End)
		assert.Equal(t, time.Millisecond, gap,
			"period %d phải bắt đầu ngay sau period %d (hở %v)", i, i-1, gap)
	}
	for _, p := range periods {
		assert.False(t, p.End.After(expectedEnd), "period %s vượt quá end của range", p.Key)
	}
}

func TestGeneratePeriods_Daily(t *testing.T) {
	start, end := day("2024-01-01"), day("2024-01-05")
	periods, err := GeneratePeriods(start, end, PeriodDaily)
	require.NoError(t, err)

	assert.Len(t, periods, 5)
	assert.Equal(t, "2024-01-01", periods[0].Key)
	assert.Equal(t, "2024-01-05", periods[4].Key)
	assertContiguous(t, periods, start, end)
}

func TestGeneratePeriods_WeeklyClipped(t *testing.T) {
	// 2024-01-01 là thứ Hai: tuần đầu trọn vẹn, tuần hai bị clip tại ngày 10
	start, end := day("2024-01-01"), day("2024-01-10")
	periods, err := GeneratePeriods(start, end, PeriodWeekly)
	require.NoError(t, err)

	require.Len(t, periods, 2)
	assert.Equal(t, "2024-01-01", periods[0].StartDate)
	assert.Equal(t, "2024-01-07", periods[0].EndDate)
	assert.Equal(t, "2024-01-08", periods[1].StartDate)
	assert.Equal(t, "2024-01-10", periods[1].EndDate)
	assertContiguous(t, periods, start, end)
}

func TestGeneratePeriods_WeeklyStartsMidWeek(t *testing.T) {
	// 2024-01-03 là thứ Tư: tuần đầu bị clip hai đầu (Tư -> Chủ Nhật)
	start, end := day("2024-01-03"), day("2024-01-15")
	periods, err := GeneratePeriods(start, end, PeriodWeekly)
	require.NoError(t, err)

	require.Len(t, periods, 3)
	assert.Equal(t, "2024-01-03", periods[0].StartDate)
	assert.Equal(t, "2024-01-07", periods[0].EndDate)   // Chủ Nhật
	assert.Equal(t, "2024-01-08", periods[1].StartDate) // Thứ Hai
	assert.Equal(t, "2024-01-14", periods[1].EndDate)
	assert.Equal(t, "2024-01-15", periods[2].StartDate)
	assert.Equal(t, "2024-01-15", periods[2].EndDate)
	assertContiguous(t, periods, start, end)
}

func TestGeneratePeriods_WeeklySundayBelongsToPriorWeek(t *testing.T) {
	// 2024-01-07 là Chủ Nhật: phải thuộc tuần bắt đầu thứ Hai trước đó,
	// nên period đầu chỉ có đúng một ngày
	start, end := day("2024-01-07"), day("2024-01-08")
	periods, err := GeneratePeriods(start, end, PeriodWeekly)
	require.NoError(t, err)

	require.Len(t, periods, 2)
	assert.Equal(t, "2024-01-07", periods[0].EndDate)
	assert.Equal(t, "2024-01-08", periods[1].StartDate)
}

func TestGeneratePeriods_MonthlyClipped(t *testing.T) {
	start, end := day("2024-01-15"), day("2024-03-10")
	periods, err := GeneratePeriods(start, end, PeriodMonthly)
	require.NoError(t, err)

	require.Len(t, periods, 3)
	assert.Equal(t, "2024-01", periods[0].Key)
	assert.Equal(t, "2024-01-15", periods[0].StartDate)
	assert.Equal(t, "2024-01-31", periods[0].EndDate)
	assert.Equal(t, "2024-02-01", periods[1].StartDate)
	assert.Equal(t, "2024-02-29", periods[1].EndDate) // Năm nhuận
	assert.Equal(t, "2024-03-01", periods[2].StartDate)
	assert.Equal(t, "2024-03-10", periods[2].EndDate)
	assertContiguous(t, periods, start, end)
}

func TestGeneratePeriods_SingleDay(t *testing.T) {
	start := day("2024-06-15")
	for _, periodType := range []string{PeriodDaily, PeriodWeekly, PeriodMonthly} {
		periods, err := GeneratePeriods(start, start, periodType)
		require.NoError(t, err, periodType)
		assert.Len(t, periods, 1, periodType)
		assertContiguous(t, periods, start, start)
	}
}

func TestGeneratePeriods_InvalidType(t *testing.T) {
	_, err := GeneratePeriods(day("2024-01-01"), day("2024-01-05"), "hourly")
	assert.Error(t, err)
}

func TestParseDateRange_InvertedIsInvalidRange(t *testing.T) {
	_, _, err := ParseDateRange("2024-02-01", "2024-01-01", time.UTC)
	require.Error(t, err)
}

func TestParseDateRange_EndIsEndOfDay(t *testing.T) {
	start, end, err := ParseDateRange("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day("2024-01-01"), start)
	assert.Equal(t, day("2024-01-31").AddDate(0, 0, 1).Add(-time.Millisecond), end)
}
