// Package farmers is the farmer store boundary. Every implementation enforces
// uniqueness of farmer_id, temp_id, nrc_hash and phone_hash and reports
// violations as *common.DuplicateKeyError naming the colliding key.
package farmers

import (
	"context"

	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

// Filter selects a single farmer by one lookup key.
type Filter struct {
	Key   models.LookupKey
	Value string
}

// Mutator edits a loaded farmer in place. Returning an error aborts the update.
type Mutator func(f *models.Farmer) error

type Repository interface {
	// FindOne returns common.ErrorNotFound when nothing matches.
	FindOne(ctx context.Context, filter Filter) (*models.Farmer, error)
	// Insert fails with *common.DuplicateKeyError when any unique key collides.
	Insert(ctx context.Context, f *models.Farmer) error
	// Update applies mutate to the stored farmer atomically and returns the
	// stored result. The farmer_id can not be changed by mutate.
	Update(ctx context.Context, farmerID string, mutate Mutator) (*models.Farmer, error)
}

// uniqueKeys are the keys every store indexes uniquely.
var uniqueKeys = []models.LookupKey{
	models.KeyFarmerID,
	models.KeyTempID,
	models.KeyNRCHash,
	models.KeyPhoneHash,
}

func validKey(k models.LookupKey) bool {
	for _, u := range uniqueKeys {
		if u == k {
			return true
		}
	}
	return false
}
