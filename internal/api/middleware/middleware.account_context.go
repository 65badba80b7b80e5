// Package middleware chứa các middleware dùng chung cho tầng API.
package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/common"
)

// AccountContextMiddleware middleware để quản lý account (tenant) context.
// - Đọc X-Account-ID từ header (gateway phía trước đã xác thực request)
// - Validate là một ObjectID hợp lệ
// - Lưu accountID vào context để service layer scope mọi truy vấn theo tenant
//
// Mọi route dữ liệu đều yêu cầu account context: không có tenant thì không có
// dữ liệu để trả về, nên thiếu header là lỗi 400 chứ không phải fallback.
func AccountContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		accountIDStr := c.Get("X-Account-ID")
		if accountIDStr == "" {
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeValidationInput,
				"Thiếu header X-Account-ID",
				common.StatusBadRequest,
				nil,
			))
			return nil
		}

		accountID, err := primitive.ObjectIDFromHex(accountIDStr)
		if err != nil {
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeValidationFormat,
				"X-Account-ID không phải ObjectID hợp lệ",
				common.StatusBadRequest,
				accountIDStr,
			))
			return nil
		}

		// Lưu vào context dưới cả hai dạng để handler không phải parse lại
		c.Locals("accountID", accountID.Hex())
		c.Locals("accountObjectID", accountID)

		return c.Next()
	}
}
