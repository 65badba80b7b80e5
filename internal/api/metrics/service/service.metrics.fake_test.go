// Package metricsvc - Fake QueryExecutor in-memory cho test engine:
// đánh giá filter và pipeline $match/$group trên document trong RAM,
// không cần mongo thật.
package metricsvc

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sales_metrics/internal/common"
	"sales_metrics/internal/utility"
)

// fakeExecutor giữ document theo tên nguồn. failSources mô phỏng
// DataSourceError cho cả collection; failWhen mô phỏng lỗi query có
// điều kiện (vd chỉ fail truy vấn của một user trong batch).
type fakeExecutor struct {
	data        map[string][]bson.M
	failSources map[string]bool
	failWhen    func(source string, filter bson.M) bool
	queryCount  int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		data:        make(map[string][]bson.M),
		failSources: make(map[string]bool),
	}
}

func (f *fakeExecutor) add(source string, docs ...bson.M) {
	for _, d := range docs {
		if _, ok := d["_id"]; !ok {
			d["_id"] = primitive.NewObjectID()
		}
		f.data[source] = append(f.data[source], d)
	}
}

func (f *fakeExecutor) sourceError(source string) error {
	return common.NewError(common.ErrCodeMetricDataSource,
		"Lỗi truy vấn nguồn dữ liệu: "+source, common.StatusInternalServerError, nil)
}

func (f *fakeExecutor) Count(ctx context.Context, source string, filter bson.M) (int64, error) {
	if f.failSources[source] {
		return 0, f.sourceError(source)
	}
	if f.failWhen != nil && f.failWhen(source, filter) {
		return 0, f.sourceError(source)
	}
	f.queryCount++
	var n int64
	for _, doc := range f.data[source] {
		if matchDoc(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeExecutor) Aggregate(ctx context.Context, source string, pipeline []bson.M) ([]bson.M, error) {
	if f.failSources[source] {
		return nil, f.sourceError(source)
	}
	if f.failWhen != nil {
		for _, stage := range pipeline {
			if match, ok := stage["$match"].(bson.M); ok && f.failWhen(source, match) {
				return nil, f.sourceError(source)
			}
		}
	}
	f.queryCount++

	docs := f.data[source]
	var results []bson.M
	for _, stage := range pipeline {
		if match, ok := stage["$match"].(bson.M); ok {
			var kept []bson.M
			for _, doc := range docs {
				if matchDoc(doc, match) {
					kept = append(kept, doc)
				}
			}
			docs = kept
		}
		if group, ok := stage["$group"].(bson.M); ok {
			results = groupDocs(docs, group)
		}
	}
	return results, nil
}

func (f *fakeExecutor) Find(ctx context.Context, source string, filter bson.M, sortOrder bson.D, limit int64) ([]bson.M, error) {
	if f.failSources[source] {
		return nil, f.sourceError(source)
	}
	f.queryCount++

	var out []bson.M
	for _, doc := range f.data[source] {
		if matchDoc(doc, filter) {
			out = append(out, doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, s := range sortOrder {
			cmp := compareValues(out[i][s.Key], out[j][s.Key])
			if cmp != 0 {
				if dir, _ := s.Value.(int); dir < 0 {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// matchDoc đánh giá tập con toán tử mongo mà engine dùng:
// equality, $gte/$lte/$gt/$lt, $ne, $in, $and.
func matchDoc(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		if key == "$and" {
			subs, ok := cond.([]bson.M)
			if !ok {
				return false
			}
			for _, sub := range subs {
				if !matchDoc(doc, sub) {
					return false
				}
			}
			continue
		}

		fieldVal := doc[key]
		ops, isOps := cond.(bson.M)
		if !isOps {
			if !equalValues(fieldVal, cond) {
				return false
			}
			continue
		}
		for op, arg := range ops {
			switch op {
			case "$gte":
				if compareValues(fieldVal, arg) < 0 {
					return false
				}
			case "$lte":
				if compareValues(fieldVal, arg) > 0 {
					return false
				}
			case "$gt":
				if compareValues(fieldVal, arg) <= 0 {
					return false
				}
			case "$lt":
				if compareValues(fieldVal, arg) >= 0 {
					return false
				}
			case "$ne":
				if equalValues(fieldVal, arg) {
					return false
				}
			case "$in":
				if !containsValue(arg, fieldVal) {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}

func equalValues(a interface{}, b interface{}) bool {
	if aID, ok := a.(primitive.ObjectID); ok {
		bID, ok := b.(primitive.ObjectID)
		return ok && aID == bID
	}
	if af, ok := utility.ToFloat64(a); ok {
		bf, ok := utility.ToFloat64(b)
		return ok && af == bf
	}
	return a == b
}

func compareValues(a interface{}, b interface{}) int {
	if aID, ok := a.(primitive.ObjectID); ok {
		if bID, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(aID.Hex(), bID.Hex())
		}
	}
	af, aok := utility.ToFloat64(a)
	bf, bok := utility.ToFloat64(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}

func containsValue(list interface{}, v interface{}) bool {
	switch items := list.(type) {
	case []primitive.ObjectID:
		for _, item := range items {
			if equalValues(v, item) {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if equalValues(v, item) {
				return true
			}
		}
	case bson.A:
		for _, item := range items {
			if equalValues(v, item) {
				return true
			}
		}
	case []interface{}:
		for _, item := range items {
			if equalValues(v, item) {
				return true
			}
		}
	}
	return false
}

// groupDocs hiện thực $group với _id nil hoặc "$field",
// accumulator $sum hằng số hoặc "$field".
func groupDocs(docs []bson.M, group bson.M) []bson.M {
	idExpr, _ := group["_id"].(string)

	type bucket struct {
		id   interface{}
		sums map[string]float64
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, doc := range docs {
		var id interface{}
		key := ""
		if idExpr != "" {
			id = doc[strings.TrimPrefix(idExpr, "$")]
			key = formatGroupKey(id)
		}
		b := buckets[key]
		if b == nil {
			b = &bucket{id: id, sums: make(map[string]float64)}
			buckets[key] = b
			order = append(order, key)
		}
		for field, acc := range group {
			if field == "_id" {
				continue
			}
			spec, ok := acc.(bson.M)
			if !ok {
				continue
			}
			arg := spec["$sum"]
			if ref, ok := arg.(string); ok {
				v, _ := utility.ToFloat64(doc[strings.TrimPrefix(ref, "$")])
				b.sums[field] += v
			} else if c, ok := utility.ToFloat64(arg); ok {
				b.sums[field] += c
			}
		}
	}

	var results []bson.M
	for _, key := range order {
		b := buckets[key]
		row := bson.M{"_id": b.id}
		for field, sum := range b.sums {
			row[field] = sum
		}
		results = append(results, row)
	}
	return results
}
