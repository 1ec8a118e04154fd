package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// counter names in the counters collection
const (
	counterBillNumber    = "bill_number"
	counterReceiptNumber = "receipt_number"
)

type baseRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
	logger     *logrus.Logger
}

func newBaseRepository(db *mongo.Database, collection string, logger *logrus.Logger) baseRepository {
	return baseRepository{
		db:         db,
		collection: db.Collection(collection),
		logger:     logger,
	}
}

// nextSequence atomically increments and returns the named counter
func (r *baseRepository) nextSequence(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.db.Collection(CollectionCounters).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).
		Decode(&counter)
	if err != nil {
		r.logError("next_sequence", err, logrus.Fields{"counter": name})
		return 0, fmt.Errorf("failed to advance %s: %w", name, err)
	}
	return counter.Seq, nil
}

func (r *baseRepository) logError(operation string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["operation"] = operation
	fields["collection"] = r.collection.Name()
	fields["error"] = err.Error()
	r.logger.WithFields(fields).Error("MongoDB operation failed")
}

// pageOptions sorts by field and applies limit and offset when positive
func pageOptions(field string, direction, limit, offset int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: field, Value: direction}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	return opts
}

// dateWindow builds a range condition for the optional bounds
func dateWindow(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	cond := bson.M{}
	if from != nil {
		cond["$gte"] = from.UTC()
	}
	if to != nil {
		cond["$lte"] = to.UTC()
	}
	return cond
}
