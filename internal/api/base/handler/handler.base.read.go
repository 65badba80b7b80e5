package basehdl

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "sales_metrics/internal/api/base/service"
	"sales_metrics/internal/common"
)

// BaseReadHandler cung cấp các handler đọc dùng chung cho một collection.
// Mọi truy vấn đều được scope theo accountId lấy từ context (middleware đã set).
// Type Parameters:
//   - T: Kiểu dữ liệu của model
type BaseReadHandler[T any] struct {
	Service   *basesvc.ReadServiceMongo[T]
	TimeField string // Field thời gian chính của collection (dialedAt, bookedAt, ...)
}

// NewBaseReadHandler tạo mới một BaseReadHandler cho một collection
func NewBaseReadHandler[T any](service *basesvc.ReadServiceMongo[T], timeField string) *BaseReadHandler[T] {
	return &BaseReadHandler[T]{
		Service:   service,
		TimeField: timeField,
	}
}

// GetAccountID lấy account ObjectID từ context (đã được AccountContextMiddleware set)
func GetAccountID(c fiber.Ctx) (primitive.ObjectID, error) {
	if id, ok := c.Locals("accountObjectID").(primitive.ObjectID); ok && !id.IsZero() {
		return id, nil
	}
	return primitive.NilObjectID, common.NewError(
		common.ErrCodeValidationInput,
		"Thiếu account context",
		common.StatusBadRequest,
		nil,
	)
}

// buildFilter tạo filter scope theo account và khoảng thời gian (from/to epoch millis, optional)
func (h *BaseReadHandler[T]) buildFilter(c fiber.Ctx, accountID primitive.ObjectID) bson.M {
	filter := bson.M{"accountId": accountID}

	timeFilter := bson.M{}
	if from := c.Query("from"); from != "" {
		if v, err := strconv.ParseInt(from, 10, 64); err == nil {
			timeFilter["$gte"] = v
		}
	}
	if to := c.Query("to"); to != "" {
		if v, err := strconv.ParseInt(to, 10, 64); err == nil {
			timeFilter["$lte"] = v
		}
	}
	if len(timeFilter) > 0 && h.TimeField != "" {
		filter[h.TimeField] = timeFilter
	}

	return filter
}

// Find xử lý GET /<collection>/find — trả về tối đa 1000 bản ghi mới nhất
func (h *BaseReadHandler[T]) Find(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		accountID, err := GetAccountID(c)
		if err != nil {
			return HandleResponse(c, nil, err)
		}

		opts := options.Find().SetLimit(1000)
		if h.TimeField != "" {
			opts.SetSort(bson.D{{Key: h.TimeField, Value: -1}})
		}

		results, err := h.Service.Find(c.Context(), h.buildFilter(c, accountID), opts)
		return HandleResponse(c, results, err)
	})
}

// FindOneById xử lý GET /<collection>/find-by-id/:id
func (h *BaseReadHandler[T]) FindOneById(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		accountID, err := GetAccountID(c)
		if err != nil {
			return HandleResponse(c, nil, err)
		}

		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return HandleResponse(c, nil, common.NewError(
				common.ErrCodeValidationFormat,
				"id không phải ObjectID hợp lệ",
				common.StatusBadRequest,
				c.Params("id"),
			))
		}

		// FindOne với filter account để không đọc chéo tenant
		result, err := h.Service.FindOne(c.Context(), bson.M{"_id": id, "accountId": accountID}, nil)
		return HandleResponse(c, result, err)
	})
}

// FindWithPagination xử lý GET /<collection>/find-with-pagination?page=1&limit=50
func (h *BaseReadHandler[T]) FindWithPagination(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		accountID, err := GetAccountID(c)
		if err != nil {
			return HandleResponse(c, nil, err)
		}

		page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
		limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
		if limit > 500 {
			limit = 500
		}

		opts := options.Find()
		if h.TimeField != "" {
			opts.SetSort(bson.D{{Key: h.TimeField, Value: -1}})
		}

		result, err := h.Service.FindWithPagination(c.Context(), h.buildFilter(c, accountID), page, limit, opts)
		return HandleResponse(c, result, err)
	})
}

// CountDocuments xử lý GET /<collection>/count
func (h *BaseReadHandler[T]) CountDocuments(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		accountID, err := GetAccountID(c)
		if err != nil {
			return HandleResponse(c, nil, err)
		}

		count, err := h.Service.CountDocuments(c.Context(), h.buildFilter(c, accountID))
		return HandleResponse(c, fiber.Map{"totalCount": count}, err)
	})
}
