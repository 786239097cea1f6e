package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

// newMongoPaginate takes a 1-based page; pages below 1 are treated as the first
func newMongoPaginate(limit, page int64) *mongoPaginate {
	if page < 1 {
		page = 1
	}
	return &mongoPaginate{
		limit: limit,
		page:  page,
	}
}

// getPaginatedOpts returns find options for the page, sorted by sortKey descending
func (mp *mongoPaginate) getPaginatedOpts(sortKey string) *options.FindOptions {
	skip := mp.page*mp.limit - mp.limit
	return options.Find().
		SetSort(bson.D{{Key: sortKey, Value: -1}}).
		SetSkip(skip).
		SetLimit(mp.limit)
}
