package farmers

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

// MemoryRepository keeps farmers in process memory. It is used by tests and
// by single-node deployments that do not need durability.
type MemoryRepository struct {
	mu      sync.Mutex
	farmers map[string]*models.Farmer
	index   map[models.LookupKey]map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	idx := make(map[models.LookupKey]map[string]string, len(uniqueKeys))
	for _, k := range uniqueKeys {
		idx[k] = make(map[string]string)
	}
	return &MemoryRepository{farmers: make(map[string]*models.Farmer), index: idx}
}

func (r *MemoryRepository) FindOne(ctx context.Context, filter Filter) (*models.Farmer, error) {
	if !validKey(filter.Key) {
		return nil, fmt.Errorf("unsupported lookup key %q", filter.Key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.index[filter.Key][filter.Value]
	if !ok || filter.Value == "" {
		return nil, common.ErrorNotFound
	}
	return clone(r.farmers[id]), nil
}

// Len returns the number of stored farmers.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.farmers)
}

func (r *MemoryRepository) Insert(ctx context.Context, f *models.Farmer) error {
	if f.FarmerID == "" {
		return fmt.Errorf("farmer_id is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(f, ""); err != nil {
		return err
	}
	stored := clone(f)
	r.farmers[f.FarmerID] = stored
	r.indexFarmer(stored)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, farmerID string, mutate Mutator) (*models.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.farmers[farmerID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	next := clone(current)
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.FarmerID = farmerID

	if err := r.checkUnique(next, farmerID); err != nil {
		return nil, err
	}

	r.unindexFarmer(current)
	r.farmers[farmerID] = next
	r.indexFarmer(next)
	return clone(next), nil
}

// checkUnique reports the first unique key of f already held by a farmer
// other than self.
func (r *MemoryRepository) checkUnique(f *models.Farmer, self string) error {
	for _, k := range uniqueKeys {
		v := f.Key(k)
		if v == "" {
			continue
		}
		if owner, ok := r.index[k][v]; ok && owner != self {
			return &common.DuplicateKeyError{Key: string(k)}
		}
	}
	return nil
}

func (r *MemoryRepository) indexFarmer(f *models.Farmer) {
	for _, k := range uniqueKeys {
		if v := f.Key(k); v != "" {
			r.index[k][v] = f.FarmerID
		}
	}
}

func (r *MemoryRepository) unindexFarmer(f *models.Farmer) {
	for _, k := range uniqueKeys {
		if v := f.Key(k); v != "" {
			delete(r.index[k], v)
		}
	}
}

// clone deep-copies f so callers never share memory with the store.
func clone(f *models.Farmer) *models.Farmer {
	c := *f
	if f.Address.GPSLatitude != nil {
		v := *f.Address.GPSLatitude
		c.Address.GPSLatitude = &v
	}
	if f.Address.GPSLongitude != nil {
		v := *f.Address.GPSLongitude
		c.Address.GPSLongitude = &v
	}
	if f.FarmInfo != nil {
		fi := *f.FarmInfo
		fi.CropsGrown = append([]string(nil), f.FarmInfo.CropsGrown...)
		fi.LivestockTypes = append([]string(nil), f.FarmInfo.LivestockTypes...)
		c.FarmInfo = &fi
	}
	if f.HouseholdInfo != nil {
		hi := *f.HouseholdInfo
		if hi.HouseholdSize != nil {
			v := *hi.HouseholdSize
			hi.HouseholdSize = &v
		}
		if hi.NumberOfDependents != nil {
			v := *hi.NumberOfDependents
			hi.NumberOfDependents = &v
		}
		c.HouseholdInfo = &hi
	}
	return &c
}
