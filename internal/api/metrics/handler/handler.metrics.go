// Package metricshdl - Handler HTTP cho metric engine: bind request, validate,
// gọi engine và trả envelope chuẩn. Toàn bộ logic tính nằm trong service.
package metricshdl

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	basehdl "sales_metrics/internal/api/base/handler"
	"sales_metrics/internal/api/metrics/dto"
	"sales_metrics/internal/api/metrics/models"
	metricsvc "sales_metrics/internal/api/metrics/service"
	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
	"sales_metrics/internal/logger"
	"sales_metrics/internal/utility"
)

// MetricsHandler gom các endpoint của metric engine.
type MetricsHandler struct {
	engine     *metricsvc.MetricsEngine
	userEngine *metricsvc.UserMetricsEngine
	compare    *metricsvc.CompareEngine
	execLog    *metricsvc.ExecutionLogService
}

// NewMetricsHandler tạo handler với các engine inject từ ngoài
// (catalog và executor do cmd/server dựng lúc khởi động).
func NewMetricsHandler(engine *metricsvc.MetricsEngine, execLog *metricsvc.ExecutionLogService) *MetricsHandler {
	return &MetricsHandler{
		engine:     engine,
		userEngine: metricsvc.NewUserMetricsEngine(engine),
		compare:    metricsvc.NewCompareEngine(engine),
		execLog:    execLog,
	}
}

// validateInput chạy validator singleton, gói lỗi thành input error chuẩn.
func validateInput(input interface{}) error {
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(
			common.ErrCodeValidationInput,
			"Dữ liệu đầu vào không hợp lệ: "+err.Error(),
			common.StatusBadRequest,
			nil,
		)
	}
	return nil
}

// buildFilter dựng MetricFilter từ input đã validate + account context.
func (h *MetricsHandler) buildFilter(c fiber.Ctx, dateRange dto.DateRangeInput, repIds, setterIds []string, acq *dto.AcquisitionInput) (metricsvc.MetricFilter, error) {
	accountID, err := basehdl.GetAccountID(c)
	if err != nil {
		return metricsvc.MetricFilter{}, err
	}

	start, end, err := metricsvc.ParseDateRange(dateRange.StartDate, dateRange.EndDate, h.engine.Location())
	if err != nil {
		return metricsvc.MetricFilter{}, err
	}

	return metricsvc.MetricFilter{
		AccountID:   accountID,
		Start:       start,
		End:         end,
		RepIDs:      utility.StringArray2ObjectIDArray(repIds),
		SetterIDs:   utility.StringArray2ObjectIDArray(setterIds),
		Acquisition: acq.ToMap(),
	}, nil
}

// recordExecution ghi execution log async - không chặn response.
func (h *MetricsHandler) recordExecution(c fiber.Ctx, operation string, metricNames []string, dateRange dto.DateRangeInput, started time.Time, execErr error) {
	if h.execLog == nil {
		return
	}
	accountID, err := basehdl.GetAccountID(c)
	if err != nil {
		return
	}

	entry := models.MetricExecutionLog{
		AccountID:   accountID,
		Operation:   operation,
		MetricNames: metricNames,
		RangeStart:  dateRange.StartDate,
		RangeEnd:    dateRange.EndDate,
		DurationMs:  time.Since(started).Milliseconds(),
		Status:      models.ExecutionStatusSuccess,
	}
	if execErr != nil {
		entry.Status = models.ExecutionStatusError
		entry.Error = execErr.Error()
	}

	go utility.GoProtect(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.execLog.Record(ctx, entry)
	})
}

// HandleCatalog trả danh sách metric đã đăng ký.
// @Router /api/v1/metrics/catalog [get]
func (h *MetricsHandler) HandleCatalog(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		catalog := h.engine.Catalog()
		names := catalog.AllMetricNames()
		defs := make([]models.MetricDefinition, 0, len(names))
		for _, name := range names {
			def, err := catalog.GetMetric(name)
			if err != nil {
				return basehdl.HandleResponse(c, nil, err)
			}
			defs = append(defs, def)
		}
		return basehdl.HandleResponse(c, defs, nil)
	})
}

// HandleCatalogItem trả định nghĩa một metric theo tên.
// @Router /api/v1/metrics/catalog/{name} [get]
func (h *MetricsHandler) HandleCatalogItem(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		def, err := h.engine.Catalog().GetMetric(c.Params("name"))
		return basehdl.HandleResponse(c, def, err)
	})
}

// HandleExecute chạy một metric request.
// @Router /api/v1/metrics/execute [post]
func (h *MetricsHandler) HandleExecute(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input dto.MetricExecuteInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := validateInput(&input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		filter, err := h.buildFilter(c, input.DateRange, input.RepIds, input.SetterIds, input.Acquisition)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		filter.LinkID = utility.String2ObjectID(input.LinkId)

		started := time.Now()
		result, err := h.engine.Execute(c.Context(), metricsvc.MetricRequest{
			MetricName: input.MetricName,
			Filter:     filter,
		}, metricsvc.ExecuteOptions{
			VizType:          input.VizType,
			DynamicBreakdown: input.DynamicBreakdown,
			PeriodType:       input.PeriodType,
		})

		h.recordExecution(c, "execute", []string{input.MetricName}, input.DateRange, started, err)
		logger.LogMetricExecution("execute", []string{input.MetricName}, c, map[string]interface{}{
			"vizType": input.VizType,
		})
		return basehdl.HandleResponse(c, result, err)
	})
}

// HandleUsers chạy batch metric theo user.
// @Router /api/v1/metrics/users [post]
func (h *MetricsHandler) HandleUsers(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input dto.UserMetricsInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := validateInput(&input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		filter, err := h.buildFilter(c, input.DateRange, nil, nil, input.Acquisition)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		started := time.Now()
		resp, err := h.userEngine.CalculateForUsers(c.Context(), metricsvc.UserMetricsRequest{
			MetricName: input.MetricName,
			Filter:     filter,
			UserIDs:    utility.StringArray2ObjectIDArray(input.UserIds),
		})

		h.recordExecution(c, "users", []string{input.MetricName}, input.DateRange, started, err)
		logger.LogMetricExecution("users", []string{input.MetricName}, c, map[string]interface{}{
			"userCount": len(input.UserIds),
		})
		return basehdl.HandleResponse(c, resp, err)
	})
}

// HandleCompare chạy so sánh theo attribution mode.
// @Router /api/v1/metrics/compare [post]
func (h *MetricsHandler) HandleCompare(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input dto.CompareInput
		if err := c.Bind().Body(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := validateInput(&input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		filter, err := h.buildFilter(c, input.DateRange, input.RepIds, input.SetterIds, input.Acquisition)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		started := time.Now()
		resp, err := h.compare.Calculate(c.Context(), metricsvc.CompareRequest{
			MetricName:         input.MetricName,
			Filter:             filter,
			Scope:              input.Scope,
			AttributionMode:    input.AttributionMode,
			ExcludeInCallDials: input.ExcludeInCallDials,
			ExcludeRepDials:    input.ExcludeRepDials,
			Entities:           input.Entities,
		})

		h.recordExecution(c, "compare", []string{input.MetricName}, input.DateRange, started, err)
		logger.LogMetricExecution("compare", []string{input.MetricName}, c, map[string]interface{}{
			"scope":           input.Scope,
			"attributionMode": input.AttributionMode,
		})
		return basehdl.HandleResponse(c, resp, err)
	})
}

// HandlePeriods sinh dãy period bucket cho UI introspection.
// @Router /api/v1/metrics/periods [get]
func (h *MetricsHandler) HandlePeriods(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input dto.PeriodsInput
		if err := c.Bind().Query(&input); err != nil {
			return basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
		}
		if err := validateInput(&input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}

		// ParseDateRange kiểm tra thứ tự; GeneratePeriods nhận mốc đầu ngày
		start, _, err := metricsvc.ParseDateRange(input.StartDate, input.EndDate, h.engine.Location())
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		endDay, _ := time.ParseInLocation(metricsvc.DateLayout, input.EndDate, h.engine.Location())

		periods, err := metricsvc.GeneratePeriods(start, endDay, input.PeriodType)
		return basehdl.HandleResponse(c, periods, err)
	})
}
