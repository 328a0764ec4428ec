package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// toRecord flattens a decoded document into plain Go values. The ObjectID
// is exposed as a hex "id"; DateTime is kept since it converts itself via
// Time(), and timestamps become {"seconds": n}.
func toRecord(doc bson.M) models.Record {
	rec := make(models.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				rec["id"] = oid.Hex()
				continue
			}
			if _, has := doc["id"]; !has {
				rec["id"] = plain(v)
			}
			continue
		}
		rec[k] = plain(v)
	}
	return rec
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = plain(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = plain(inner)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Timestamp:
		return map[string]any{"seconds": int64(t.T)}
	case primitive.Decimal128:
		return t.String()
	default:
		return v
	}
}
