package farmers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding farmer documents.
const CollectionName = "farmers"

// maxReplaceAttempts bounds optimistic retries of Update when a concurrent
// writer changes the document between read and replace.
const maxReplaceAttempts = 5

var dupIndexRe = regexp.MustCompile(`index: (\S+)`)

// MongoRepository stores farmers in a Mongo collection. All calls go through
// a circuit breaker; not-found and duplicate-key results do not count as
// failures.
type MongoRepository struct {
	coll    *mongo.Collection
	breaker *gobreaker.CircuitBreaker
}

func NewMongoRepository(db *mongo.Database, breaker *gobreaker.CircuitBreaker) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), breaker: breaker}
}

// NewBreaker builds the circuit breaker guarding store calls. It trips after
// five consecutive failures and probes again after timeout.
func NewBreaker(name string, timeout time.Duration, l logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			l.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// EnsureIndexes creates the unique indexes the reconciliation relies on.
// Optional keys use partial indexes so absent values never collide.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	present := func(field string) bson.M {
		return bson.M{field: bson.M{"$type": "string"}}
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "farmer_id", Value: 1}},
			Options: options.Index().SetName("farmer_id_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "temp_id", Value: 1}},
			Options: options.Index().SetName("temp_id_1").SetUnique(true).SetPartialFilterExpression(present("temp_id")),
		},
		{
			Keys:    bson.D{{Key: "nrc_hash", Value: 1}},
			Options: options.Index().SetName("nrc_hash_1").SetUnique(true).SetPartialFilterExpression(present("nrc_hash")),
		},
		{
			Keys:    bson.D{{Key: "phone_hash", Value: 1}},
			Options: options.Index().SetName("phone_hash_1").SetUnique(true).SetPartialFilterExpression(present("phone_hash")),
		},
		{
			Keys:    bson.D{{Key: "email_hash", Value: 1}},
			Options: options.Index().SetName("email_hash_1"),
		},
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return r.coll.Indexes().CreateMany(ctx, indexes)
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindOne(ctx context.Context, filter Filter) (*models.Farmer, error) {
	if !validKey(filter.Key) {
		return nil, fmt.Errorf("unsupported lookup key %q", filter.Key)
	}
	return r.findOne(ctx, bson.M{string(filter.Key): filter.Value})
}

func (r *MongoRepository) findOne(ctx context.Context, q bson.M) (*models.Farmer, error) {
	var f models.Farmer
	found := true

	_, err := r.breaker.Execute(func() (interface{}, error) {
		err := r.coll.FindOne(ctx, q).Decode(&f)
		if errors.Is(err, mongo.ErrNoDocuments) {
			found = false
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	if !found {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *MongoRepository) Insert(ctx context.Context, f *models.Farmer) error {
	var dup error

	_, err := r.breaker.Execute(func() (interface{}, error) {
		_, err := r.coll.InsertOne(ctx, f)
		if mongo.IsDuplicateKeyError(err) {
			dup = duplicateKey(err)
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return dup
}

// Update reads the document, applies mutate and replaces it on the condition
// that updated_at is unchanged, retrying when another writer got there first.
func (r *MongoRepository) Update(ctx context.Context, farmerID string, mutate Mutator) (*models.Farmer, error) {
	for attempt := 0; attempt < maxReplaceAttempts; attempt++ {
		f, err := r.findOne(ctx, bson.M{"farmer_id": farmerID})
		if err != nil {
			return nil, err
		}
		seen := f.UpdatedAt

		if err := mutate(f); err != nil {
			return nil, err
		}
		f.FarmerID = farmerID

		var (
			dup     error
			matched int64
		)
		_, err = r.breaker.Execute(func() (interface{}, error) {
			res, err := r.coll.ReplaceOne(ctx, bson.M{"farmer_id": farmerID, "updated_at": seen}, f)
			if mongo.IsDuplicateKeyError(err) {
				dup = duplicateKey(err)
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			matched = res.MatchedCount
			return nil, nil
		})
		if err != nil {
			return nil, fmt.Errorf("mongo error: %w", err)
		}
		if dup != nil {
			return nil, dup
		}
		if matched == 1 {
			return f, nil
		}
	}
	return nil, fmt.Errorf("update %s: concurrent modification after %d attempts", farmerID, maxReplaceAttempts)
}

// duplicateKey converts an E11000 error into a DuplicateKeyError, reading the
// index name from the server message.
func duplicateKey(err error) error {
	key := ""
	if m := dupIndexRe.FindStringSubmatch(err.Error()); m != nil {
		key = strings.TrimSuffix(m[1], "_1")
	}
	return &common.DuplicateKeyError{Key: key, Err: err}
}
