package models

import "time"

// LookupKey names a uniquely indexed farmer attribute.
type LookupKey string

const (
	KeyFarmerID  LookupKey = "farmer_id"
	KeyTempID    LookupKey = "temp_id"
	KeyNRCHash   LookupKey = "nrc_hash"
	KeyPhoneHash LookupKey = "phone_hash"
)

// RegistrationPending is the status of a farmer created through batch sync.
const RegistrationPending = "pending"

// Farmer is the reconciled, stored farmer record. Sensitive attributes are
// held as ciphertext tokens and the lookup keys as keyed hashes; no
// plaintext identity number, phone or email is ever stored.
type Farmer struct {
	FarmerID           string         `json:"farmer_id" bson:"farmer_id"`
	TempID             string         `json:"temp_id,omitempty" bson:"temp_id,omitempty"`
	NRCHash            string         `json:"nrc_hash,omitempty" bson:"nrc_hash,omitempty"`
	PhoneHash          string         `json:"phone_hash,omitempty" bson:"phone_hash,omitempty"`
	EmailHash          string         `json:"email_hash,omitempty" bson:"email_hash,omitempty"`
	PersonalInfo       PersonalInfo   `json:"personal_info" bson:"personal_info"`
	Address            Address        `json:"address" bson:"address"`
	FarmInfo           *FarmInfo      `json:"farm_info,omitempty" bson:"farm_info,omitempty"`
	HouseholdInfo      *HouseholdInfo `json:"household_info,omitempty" bson:"household_info,omitempty"`
	RegistrationStatus string         `json:"registration_status" bson:"registration_status"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" bson:"updated_at"`
	CreatedBy          string         `json:"created_by" bson:"created_by"`
	LastModifiedBy     string         `json:"last_modified_by,omitempty" bson:"last_modified_by,omitempty"`
}

// Key returns the value of a lookup key.
func (f *Farmer) Key(k LookupKey) string {
	switch k {
	case KeyFarmerID:
		return f.FarmerID
	case KeyTempID:
		return f.TempID
	case KeyNRCHash:
		return f.NRCHash
	case KeyPhoneHash:
		return f.PhoneHash
	}
	return ""
}

// Merge copies every non-empty attribute of in over f. Identity and audit
// fields (FarmerID, CreatedAt, CreatedBy, RegistrationStatus) are never
// touched, and an existing TempID is kept.
func (f *Farmer) Merge(in *Farmer) {
	if f.TempID == "" {
		f.TempID = in.TempID
	}
	setIf(&f.NRCHash, in.NRCHash)
	setIf(&f.PhoneHash, in.PhoneHash)
	setIf(&f.EmailHash, in.EmailHash)

	p, q := &f.PersonalInfo, in.PersonalInfo
	setIf(&p.FirstName, q.FirstName)
	setIf(&p.LastName, q.LastName)
	setIf(&p.PhonePrimary, q.PhonePrimary)
	setIf(&p.PhoneSecondary, q.PhoneSecondary)
	setIf(&p.Email, q.Email)
	setIf(&p.NRC, q.NRC)
	setIf(&p.DateOfBirth, q.DateOfBirth)
	setIf(&p.Gender, q.Gender)

	a, b := &f.Address, in.Address
	setIf(&a.Province, b.Province)
	setIf(&a.ProvinceName, b.ProvinceName)
	setIf(&a.District, b.District)
	setIf(&a.DistrictName, b.DistrictName)
	setIf(&a.ChiefdomID, b.ChiefdomID)
	setIf(&a.ChiefdomName, b.ChiefdomName)
	setIf(&a.Village, b.Village)
	setIf(&a.Street, b.Street)
	if b.GPSLatitude != nil {
		a.GPSLatitude = b.GPSLatitude
	}
	if b.GPSLongitude != nil {
		a.GPSLongitude = b.GPSLongitude
	}

	if in.FarmInfo != nil {
		f.FarmInfo = in.FarmInfo
	}
	if in.HouseholdInfo != nil {
		f.HouseholdInfo = in.HouseholdInfo
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
