// Package metricsvc - QueryExecutor: cổng duy nhất engine chạm vào datastore.
package metricsvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sales_metrics/internal/common"
	"sales_metrics/internal/global"
)

// QueryExecutor trừu tượng hóa datastore cho engine: aggregate có filter
// và group, count, và đọc row thô cho attribution resolver. Inject vào
// engine lúc tạo nên test thay bằng executor in-memory được.
type QueryExecutor interface {
	// Aggregate chạy pipeline trên collection nguồn, trả các document kết quả.
	Aggregate(ctx context.Context, source string, pipeline []bson.M) ([]bson.M, error)

	// Count đếm document khớp filter.
	Count(ctx context.Context, source string, filter bson.M) (int64, error)

	// Find đọc document thô theo filter và sort. limit <= 0 là không giới hạn.
	Find(ctx context.Context, source string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error)
}

// MongoQueryExecutor hiện thực QueryExecutor trên các collection đã đăng ký
// trong RegistryCollections. Mọi lỗi truy vấn được wrap thành DataSourceError
// kèm tên nguồn; engine không tự retry (aggregate fail retry mù lên datastore
// đang quá tải chỉ làm tệ hơn).
type MongoQueryExecutor struct{}

// NewMongoQueryExecutor tạo executor dùng registry collection toàn cục.
func NewMongoQueryExecutor() *MongoQueryExecutor {
	return &MongoQueryExecutor{}
}

// collection tra collection theo tên nguồn từ registry.
func (e *MongoQueryExecutor) collection(source string) (*mongo.Collection, error) {
	coll, ok := global.RegistryCollections.Get(source)
	if !ok {
		return nil, common.NewError(
			common.ErrCodeMetricDataSource,
			"Collection nguồn chưa được đăng ký: "+source,
			common.StatusInternalServerError,
			map[string]interface{}{"source": source},
		)
	}
	return coll, nil
}

// wrapDataSourceError chuyển lỗi mongo thành DataSourceError kèm context nguồn.
func wrapDataSourceError(source string, err error) error {
	return common.NewError(
		common.ErrCodeMetricDataSource,
		"Lỗi truy vấn nguồn dữ liệu: "+source,
		common.StatusInternalServerError,
		map[string]interface{}{
			"source": source,
			"cause":  common.ConvertMongoError(err).Error(),
		},
	)
}

// Aggregate chạy pipeline và decode toàn bộ kết quả.
func (e *MongoQueryExecutor) Aggregate(ctx context.Context, source string, pipeline []bson.M) ([]bson.M, error) {
	coll, err := e.collection(source)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapDataSourceError(source, err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, wrapDataSourceError(source, err)
	}
	return results, nil
}

// Count đếm document khớp filter.
func (e *MongoQueryExecutor) Count(ctx context.Context, source string, filter bson.M) (int64, error) {
	coll, err := e.collection(source)
	if err != nil {
		return 0, err
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, wrapDataSourceError(source, err)
	}
	return count, nil
}

// Find đọc document thô, sort ổn định do caller chỉ định.
func (e *MongoQueryExecutor) Find(ctx context.Context, source string, filter bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	coll, err := e.collection(source)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapDataSourceError(source, err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, wrapDataSourceError(source, err)
	}
	return results, nil
}
