package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/farmsync/internal/cryptox"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/farmers"
)

var (
	cipherOnce sync.Once
	cipher     *cryptox.FieldCipher
)

// testCipher derives keys once per test binary; derivation is deliberately slow.
func testCipher(t *testing.T) *cryptox.FieldCipher {
	t.Helper()
	cipherOnce.Do(func() {
		c, err := cryptox.NewFieldCipher("test-master-secret-0123456789")
		if err != nil {
			panic(err)
		}
		cipher = c
	})
	return cipher
}

func newRecord(tempID, nrc, phone string) *models.RawRecord {
	return &models.RawRecord{
		TempID: tempID,
		PersonalInfo: &models.PersonalInfo{
			FirstName:    "Mary",
			LastName:     "Banda",
			PhonePrimary: phone,
			NRC:          nrc,
			Email:        "Mary.Banda@example.com",
			DateOfBirth:  "1985-04-12",
		},
		Address: &models.Address{
			Province: "Eastern",
			District: "Chipata",
			Village:  "Kapata",
			Street:   "plot 17",
		},
		FarmInfo: &models.FarmInfo{FarmSizeHectares: 2.5, CropsGrown: []string{"maize"}, YearsFarming: 10},
	}
}

func newResolver(t *testing.T, repo farmers.Repository) *Resolver {
	t.Helper()
	return NewResolver(repo, testCipher(t), DefaultMaxCreateAttempts, logging.Nop{})
}

// sequenceIDs returns an ID generator yielding ids in order and then the last one forever.
func sequenceIDs(ids ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id, nil
	}
}

// recordingRepo wraps a repository and logs the lookups made through it.
type recordingRepo struct {
	farmers.Repository
	mu      sync.Mutex
	lookups []models.LookupKey
}

func (r *recordingRepo) FindOne(ctx context.Context, f farmers.Filter) (*models.Farmer, error) {
	r.mu.Lock()
	r.lookups = append(r.lookups, f.Key)
	r.mu.Unlock()
	return r.Repository.FindOne(ctx, f)
}
