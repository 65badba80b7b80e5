// Package metricsvc - User Metrics Engine: tính metric cho từng user,
// tự suy vai trò (setter / rep / both) trong window yêu cầu.
package metricsvc

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/api/metrics/models"
)

// UserMetricsRequest một batch tính metric theo user.
// Filter không mang RepIDs/SetterIDs - scope theo user do engine tự đặt
// cho từng unit theo vai trò suy ra.
type UserMetricsRequest struct {
	MetricName string
	Filter     MetricFilter
	UserIDs    []primitive.ObjectID
}

// UserMetricsResponse kết quả batch. Results giữ đúng thứ tự UserIDs vào,
// kể cả khi các unit chạy song song.
type UserMetricsResponse struct {
	Results         []models.UserMetricResult `json:"results"`
	ExecutionTimeMs int64                     `json:"executionTimeMs"` // Wall-clock cả batch, cho observability
	ExecutedAt      int64                     `json:"executedAt"`
	Partial         bool                      `json:"partial"` // Có unit fail (Value = 0 fallback)
}

// UserMetricsEngine wrap MetricsEngine cho các phép tính per-user.
type UserMetricsEngine struct {
	engine *MetricsEngine
}

// NewUserMetricsEngine tạo engine per-user trên cùng executor/catalog.
func NewUserMetricsEngine(engine *MetricsEngine) *UserMetricsEngine {
	return &UserMetricsEngine{engine: engine}
}

// CalculateForUsers tính metric cho từng user trong batch.
// Mỗi unit độc lập và không đụng state chung nên chạy song song có giới
// hạn; một unit fail trả Value 0 kèm Error, các unit khác không bị ảnh
// hưởng. Context bị hủy thì cả batch coi như bỏ, không trả kết quả dở.
func (u *UserMetricsEngine) CalculateForUsers(ctx context.Context, req UserMetricsRequest) (*UserMetricsResponse, error) {
	def, err := u.engine.catalog.GetMetric(req.MetricName)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	results := make([]models.UserMetricResult, len(req.UserIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.engine.maxConcurrency)

	for i, userID := range req.UserIDs {
		i, userID := i, userID
		g.Go(func() error {
			results[i] = u.calculateForUser(gctx, def, req.Filter, userID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partial := false
	for _, r := range results {
		if r.Error != "" {
			partial = true
			break
		}
	}

	return &UserMetricsResponse{
		Results:         results,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		ExecutedAt:      time.Now().UnixMilli(),
		Partial:         partial,
	}, nil
}

// calculateForUser tính metric cho một user: suy vai trò rồi tính giá trị
// theo scope vai trò đó. Lỗi được nuốt vào result (zero-fallback có
// diagnostic), không bao giờ propagate để giữ batch "best effort per unit".
func (u *UserMetricsEngine) calculateForUser(ctx context.Context, def models.MetricDefinition, f MetricFilter, userID primitive.ObjectID) models.UserMetricResult {
	result := models.UserMetricResult{UserID: userID.Hex()}

	role, err := u.detectRole(ctx, def, f, userID)
	if err != nil {
		result.Role = models.UserRoleNone
		result.Error = err.Error()
		return result
	}
	result.Role = role

	switch role {
	case models.UserRoleNone:
		return result

	case models.UserRoleSetter, models.UserRoleRep:
		value, err := u.roleValue(ctx, def, f, userID, role)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Value = value
		return result

	case models.UserRoleBoth:
		setterNum, setterDen, err := u.roleParts(ctx, def, f, userID, models.UserRoleSetter)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		repNum, repDen, err := u.roleParts(ctx, def, f, userID, models.UserRoleRep)
		if err != nil {
			result.Error = err.Error()
			return result
		}

		if def.Additive() {
			// Metric count/sum: hai vai trò cộng trực tiếp,
			// asSetter + asRep == value
			result.Breakdown = &models.RoleBreakdown{AsSetter: setterNum, AsRep: repNum}
			result.Value = setterNum + repNum
			return result
		}

		// Metric tỉ lệ/avg: gộp theo trọng số mẫu số - ratio của tổng,
		// không bao giờ average hai tỉ lệ con
		result.Breakdown = &models.RoleBreakdown{
			AsSetter: safeDiv(setterNum, setterDen),
			AsRep:    safeDiv(repNum, repDen),
		}
		result.Value = safeDiv(setterNum+repNum, setterDen+repDen)
		return result
	}

	return result
}

// detectRole kiểm tra user xuất hiện với vai trò nào trên các row đạt filter
// trong window. Nguồn kiểm tra là leg chính của metric (với metric percent
// là leg tử số).
func (u *UserMetricsEngine) detectRole(ctx context.Context, def models.MetricDefinition, f MetricFilter, userID primitive.ObjectID) (string, error) {
	asSetter, err := u.roleRowCount(ctx, def, f, userID, models.UserRoleSetter)
	if err != nil {
		return "", err
	}
	asRep, err := u.roleRowCount(ctx, def, f, userID, models.UserRoleRep)
	if err != nil {
		return "", err
	}

	switch {
	case asSetter > 0 && asRep > 0:
		return models.UserRoleBoth, nil
	case asSetter > 0:
		return models.UserRoleSetter, nil
	case asRep > 0:
		return models.UserRoleRep, nil
	}
	return models.UserRoleNone, nil
}

// roleRowCount đếm row trong window mà user giữ vai trò role.
// Nguồn không có field cho vai trò đó (vd setter trên payments) đếm 0.
func (u *UserMetricsEngine) roleRowCount(ctx context.Context, def models.MetricDefinition, f MetricFilter, userID primitive.ObjectID, role string) (int64, error) {
	leg := def.Leg
	cond := roleScopeCondition(leg.Source, role, []primitive.ObjectID{userID})
	if cond == nil {
		return 0, nil
	}

	match, err := BuildMatch(f, leg)
	if err != nil {
		return 0, err
	}
	match["$and"] = append(asBsonSlice(match["$and"]), cond)

	return u.engine.exec.Count(ctx, leg.Source, match)
}

// roleValue tính giá trị metric với scope một vai trò.
func (u *UserMetricsEngine) roleValue(ctx context.Context, def models.MetricDefinition, f MetricFilter, userID primitive.ObjectID, role string) (float64, error) {
	num, den, err := u.roleParts(ctx, def, f, userID, role)
	if err != nil {
		return 0, err
	}
	return safeDiv(num, den), nil
}

// roleParts tính (tử, mẫu) của metric với filter scope theo vai trò của user.
func (u *UserMetricsEngine) roleParts(ctx context.Context, def models.MetricDefinition, f MetricFilter, userID primitive.ObjectID, role string) (float64, float64, error) {
	scoped := f
	switch role {
	case models.UserRoleSetter:
		scoped.SetterIDs = []primitive.ObjectID{userID}
		scoped.RepIDs = nil
	case models.UserRoleRep:
		scoped.RepIDs = []primitive.ObjectID{userID}
		scoped.SetterIDs = nil
	}
	return u.engine.computeRatioParts(ctx, def, scoped)
}

// asBsonSlice ép giá trị $and hiện có (nếu có) về slice để append thêm.
func asBsonSlice(v interface{}) []bson.M {
	if s, ok := v.([]bson.M); ok {
		return s
	}
	return nil
}
