package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFarmer_Merge(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lat := -13.64
	existing := &Farmer{
		FarmerID:           "ZM0A1B2C3D",
		TempID:             "t-old",
		NRCHash:            "nrc-1",
		PersonalInfo:       PersonalInfo{FirstName: "Ngozi", LastName: "Banda", PhonePrimary: "tok-phone"},
		Address:            Address{Province: "Eastern", Village: "Kalichero"},
		FarmInfo:           &FarmInfo{FarmSizeHectares: 2},
		RegistrationStatus: "approved",
		CreatedAt:          created,
		CreatedBy:          "agent-1",
	}

	incoming := &Farmer{
		FarmerID:           "ZMFFFFFFFF",
		TempID:             "t-new",
		PhoneHash:          "phone-1",
		PersonalInfo:       PersonalInfo{LastName: "Phiri", Email: "tok-email"},
		Address:            Address{District: "Chipata", GPSLatitude: &lat},
		RegistrationStatus: RegistrationPending,
		CreatedAt:          time.Now(),
		CreatedBy:          "agent-2",
	}

	existing.Merge(incoming)

	assert.Equal(t, "ZM0A1B2C3D", existing.FarmerID)
	assert.Equal(t, "t-old", existing.TempID)
	assert.Equal(t, "nrc-1", existing.NRCHash)
	assert.Equal(t, "phone-1", existing.PhoneHash)
	assert.Equal(t, "Ngozi", existing.PersonalInfo.FirstName)
	assert.Equal(t, "Phiri", existing.PersonalInfo.LastName)
	assert.Equal(t, "tok-phone", existing.PersonalInfo.PhonePrimary)
	assert.Equal(t, "tok-email", existing.PersonalInfo.Email)
	assert.Equal(t, "Eastern", existing.Address.Province)
	assert.Equal(t, "Chipata", existing.Address.District)
	assert.Equal(t, &lat, existing.Address.GPSLatitude)
	assert.Equal(t, 2.0, existing.FarmInfo.FarmSizeHectares)
	assert.Equal(t, "approved", existing.RegistrationStatus)
	assert.Equal(t, created, existing.CreatedAt)
	assert.Equal(t, "agent-1", existing.CreatedBy)
}

func TestFarmer_MergeKeepsTempIDOnlyWhenSet(t *testing.T) {
	f := &Farmer{FarmerID: "ZM00000001"}
	f.Merge(&Farmer{TempID: "t1"})
	assert.Equal(t, "t1", f.TempID)
}

func TestRawRecord_Keys(t *testing.T) {
	r := &RawRecord{
		NRCNumber:    " 111111/11/1 ",
		PersonalInfo: &PersonalInfo{NRC: "222222/22/2", PhonePrimary: "+260977000111"},
	}
	assert.Equal(t, "111111/11/1", r.IdentityNumber())
	assert.Equal(t, "+260977000111", r.PrimaryPhone())

	r.NRCNumber = ""
	assert.Equal(t, "222222/22/2", r.IdentityNumber())

	empty := &RawRecord{}
	assert.Equal(t, "", empty.IdentityNumber())
	assert.Equal(t, "", empty.PrimaryPhone())
}

func TestFarmer_Key(t *testing.T) {
	f := &Farmer{FarmerID: "ZM1", TempID: "t", NRCHash: "n", PhoneHash: "p"}
	assert.Equal(t, "ZM1", f.Key(KeyFarmerID))
	assert.Equal(t, "t", f.Key(KeyTempID))
	assert.Equal(t, "n", f.Key(KeyNRCHash))
	assert.Equal(t, "p", f.Key(KeyPhoneHash))
	assert.Equal(t, "", f.Key("other"))
}
