package utility

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// String2ObjectID chuyển đổi chuỗi thành ObjectID
// @params - chuỗi cần chuyển đổi
// @returns - ObjectID (NilObjectID nếu chuỗi không hợp lệ)
func String2ObjectID(id string) primitive.ObjectID {
	objectId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return objectId
}

// ObjectID2String chuyển đổi ObjectID thành chuỗi
func ObjectID2String(id primitive.ObjectID) string {
	return id.Hex()
}

// StringArray2ObjectIDArray chuyển đổi mảng chuỗi thành mảng ObjectID
func StringArray2ObjectIDArray(ids []string) []primitive.ObjectID {
	var objectIDs []primitive.ObjectID
	for _, id := range ids {
		objectIDs = append(objectIDs, String2ObjectID(id))
	}
	return objectIDs
}

// ToFloat64 chuyển đổi một giá trị numeric từ BSON về float64.
// Mongo trả về $sum/$avg dưới nhiều kiểu (int32, int64, float64) tùy dữ liệu nguồn.
func ToFloat64(input interface{}) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case primitive.Decimal128:
		// Decimal128 không có API chuyển trực tiếp, đi qua string representation
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ToInt64 chuyển đổi một giá trị numeric từ BSON về int64
func ToInt64(input interface{}) (int64, bool) {
	switch v := input.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
