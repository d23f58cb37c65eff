package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/cryptox"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/server/metrics"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/farmers"
)

// Index hash labels. A label separates the hash spaces so equal values of
// different attributes never share a digest.
const (
	LabelNRC   = "nrc"
	LabelPhone = "phone"
	LabelEmail = "email"
)

// DefaultMaxCreateAttempts bounds ID issuance and create/merge races per record.
const DefaultMaxCreateAttempts = 5

// cascade is the lookup order used to find an existing farmer. A key that is
// present but matches nothing falls through to the next one.
var cascade = []models.LookupKey{models.KeyTempID, models.KeyNRCHash, models.KeyPhoneHash}

// Resolution is the outcome of reconciling one valid record.
type Resolution struct {
	FarmerID string
	Outcome  models.Outcome
}

// Resolver matches an incoming record against stored farmers and either
// merges it into the match or creates a new farmer with a fresh ID.
type Resolver struct {
	farmers     farmers.Repository
	cipher      *cryptox.FieldCipher
	logger      logging.Logger
	maxAttempts int
	newID       func() (string, error)
	now         func() time.Time
}

func NewResolver(repo farmers.Repository, cipher *cryptox.FieldCipher, maxAttempts int, l logging.Logger) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCreateAttempts
	}
	return &Resolver{
		farmers:     repo,
		cipher:      cipher,
		logger:      l,
		maxAttempts: maxAttempts,
		newID:       cryptox.NewFarmerID,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Resolve reconciles rec on behalf of submitter. rec must already be valid.
//
// Lookup tries temp_id, then the NRC hash, then the phone hash; the first hit
// wins and absent keys are skipped. A hit is merged and reported as updated.
// A miss inserts a new farmer; if the insert collides on the generated ID a
// new one is drawn, and if it collides on a lookup key another worker created
// the farmer first, so the record is looked up again and merged.
func (r *Resolver) Resolve(ctx context.Context, submitter string, rec *models.RawRecord) (*Resolution, error) {
	sealed, err := r.Seal(rec)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		existing, key, err := r.lookup(ctx, sealed)
		if err != nil {
			return nil, fmt.Errorf("lookup: %w", err)
		}

		if existing != nil {
			res, err := r.merge(ctx, submitter, existing.FarmerID, sealed)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			r.logger.Debug(ctx, "farmer matched", "farmer_id", res.FarmerID, "key", string(key))
			return res, nil
		}

		res, err := r.create(ctx, submitter, sealed)
		if err == nil {
			return res, nil
		}

		var dup *common.DuplicateKeyError
		if !errors.As(err, &dup) {
			return nil, err
		}
		if dup.Key == "" || dup.Key == string(models.KeyFarmerID) {
			metrics.IdentifierCollisions.Inc()
			r.logger.Warn(ctx, "generated farmer id already taken", "attempt", attempt)
			continue
		}
		metrics.ReconcileRaces.Inc()
		r.logger.Info(ctx, "concurrent create detected, merging", "key", dup.Key, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w after %d attempts", common.ErrIdentifierExhausted, r.maxAttempts)
}

func (r *Resolver) lookup(ctx context.Context, sealed *models.Farmer) (*models.Farmer, models.LookupKey, error) {
	for _, k := range cascade {
		v := sealed.Key(k)
		if v == "" {
			continue
		}
		f, err := r.farmers.FindOne(ctx, farmers.Filter{Key: k, Value: v})
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, k, nil
	}
	return nil, "", nil
}

// merge applies sealed to the farmer found by the cascade. When one of the
// record's lower-precedence keys already belongs to a different farmer, the
// stored farmer keeps its own value for that key and the record's matching
// sensitive field is dropped, so the match found first always wins.
func (r *Resolver) merge(ctx context.Context, submitter, farmerID string, sealed *models.Farmer) (*Resolution, error) {
	in := *sealed
	for {
		_, err := r.farmers.Update(ctx, farmerID, func(f *models.Farmer) error {
			f.Merge(&in)
			f.UpdatedAt = r.now()
			f.LastModifiedBy = submitter
			return nil
		})
		if err == nil {
			return &Resolution{FarmerID: farmerID, Outcome: models.OutcomeUpdated}, nil
		}

		var dup *common.DuplicateKeyError
		if errors.As(err, &dup) && dropKey(&in, models.LookupKey(dup.Key)) {
			r.logger.Info(ctx, "lookup key held by another farmer, keeping stored value", "farmer_id", farmerID, "key", dup.Key)
			continue
		}
		if dup != nil {
			return nil, fmt.Errorf("record matches farmer %s but its %s belongs to another farmer", farmerID, dup.Key)
		}
		return nil, fmt.Errorf("update farmer %s: %w", farmerID, err)
	}
}

// dropKey clears lookup key k from f together with the sensitive field it
// was derived from. It reports false when there was nothing to clear.
func dropKey(f *models.Farmer, k models.LookupKey) bool {
	switch k {
	case models.KeyTempID:
		if f.TempID == "" {
			return false
		}
		f.TempID = ""
	case models.KeyNRCHash:
		if f.NRCHash == "" {
			return false
		}
		f.NRCHash = ""
		f.PersonalInfo.NRC = ""
	case models.KeyPhoneHash:
		if f.PhoneHash == "" {
			return false
		}
		f.PhoneHash = ""
		f.PersonalInfo.PhonePrimary = ""
	default:
		return false
	}
	return true
}

func (r *Resolver) create(ctx context.Context, submitter string, sealed *models.Farmer) (*Resolution, error) {
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("generate farmer id: %w", err)
	}

	f := *sealed
	now := r.now()
	f.FarmerID = id
	f.RegistrationStatus = models.RegistrationPending
	f.CreatedAt = now
	f.UpdatedAt = now
	f.CreatedBy = submitter

	if err := r.farmers.Insert(ctx, &f); err != nil {
		return nil, err
	}
	return &Resolution{FarmerID: id, Outcome: models.OutcomeCreated}, nil
}

// Seal converts rec into the stored shape: lookup hashes are computed from
// the plaintext and every sensitive field is replaced by its ciphertext.
// The result has no FarmerID or audit fields.
func (r *Resolver) Seal(rec *models.RawRecord) (*models.Farmer, error) {
	f := &models.Farmer{TempID: strings.TrimSpace(rec.TempID)}
	if rec.PersonalInfo != nil {
		f.PersonalInfo = *rec.PersonalInfo
	}
	if rec.Address != nil {
		f.Address = *rec.Address
	}
	if rec.FarmInfo != nil {
		fi := *rec.FarmInfo
		f.FarmInfo = &fi
	}
	if rec.HouseholdInfo != nil {
		hi := *rec.HouseholdInfo
		f.HouseholdInfo = &hi
	}

	p := &f.PersonalInfo
	p.NRC = rec.IdentityNumber()
	if p.NRC != "" {
		f.NRCHash = r.cipher.HashForIndex(p.NRC, LabelNRC)
	}
	if phone := rec.PrimaryPhone(); phone != "" {
		f.PhoneHash = r.cipher.HashForIndex(phone, LabelPhone)
	}
	if email := normalizeEmail(p.Email); email != "" {
		f.EmailHash = r.cipher.HashForIndex(email, LabelEmail)
	}

	for _, field := range sensitiveFields(f) {
		if *field == "" {
			continue
		}
		token, err := r.cipher.Encrypt(*field)
		if err != nil {
			return nil, fmt.Errorf("encrypt: %w", err)
		}
		*field = token
	}
	return f, nil
}

// Unseal returns a copy of f with every sensitive field decrypted. It fails
// with common.ErrIntegrity if any stored token was altered.
func (r *Resolver) Unseal(f *models.Farmer) (*models.Farmer, error) {
	out := *f
	for _, field := range sensitiveFields(&out) {
		if *field == "" {
			continue
		}
		plain, err := r.cipher.Decrypt(*field)
		if err != nil {
			return nil, err
		}
		*field = plain
	}
	return &out, nil
}

// MatchesNRC reports whether nrc is the identity number stored for f.
func (r *Resolver) MatchesNRC(f *models.Farmer, nrc string) bool {
	return r.cipher.VerifyIndexHash(strings.TrimSpace(nrc), f.NRCHash, LabelNRC)
}

func sensitiveFields(f *models.Farmer) []*string {
	return []*string{
		&f.PersonalInfo.PhonePrimary,
		&f.PersonalInfo.PhoneSecondary,
		&f.PersonalInfo.Email,
		&f.PersonalInfo.NRC,
		&f.PersonalInfo.DateOfBirth,
		&f.Address.Street,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
