package validator

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *models.RawRecord {
	return &models.RawRecord{
		TempID: "t1",
		PersonalInfo: &models.PersonalInfo{
			FirstName:    "A",
			LastName:     "B",
			PhonePrimary: "+260977000111",
		},
		Address: &models.Address{},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidate_OK(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(validRecord()))

	lat, lon, size := -13.64, 32.64, 4
	full := validRecord()
	full.NRCNumber = "123456/12/1"
	full.PersonalInfo.Email = "a.b@example.com"
	full.PersonalInfo.DateOfBirth = "1980-02-29"
	full.PersonalInfo.Gender = "female"
	full.Address = &models.Address{Province: "Eastern", GPSLatitude: &lat, GPSLongitude: &lon}
	full.FarmInfo = &models.FarmInfo{FarmSizeHectares: 2.5, CropsGrown: []string{"maize"}, YearsFarming: 10}
	full.HouseholdInfo = &models.HouseholdInfo{HouseholdSize: &size}
	require.NoError(t, v.Validate(full))
}

func TestValidate_IdentifyingKeyAlternatives(t *testing.T) {
	v := New()

	onlyNRC := validRecord()
	onlyNRC.TempID = ""
	onlyNRC.PersonalInfo.PhonePrimary = ""
	onlyNRC.PersonalInfo.NRC = "123456/12/1"
	assert.NoError(t, v.Validate(onlyNRC))

	onlyPhone := validRecord()
	onlyPhone.TempID = ""
	assert.NoError(t, v.Validate(onlyPhone))
}

func TestValidate_MissingEveryIdentifier(t *testing.T) {
	r := validRecord()
	r.TempID = ""
	r.PersonalInfo.PhonePrimary = ""

	err := New().Validate(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Equal(t, missingIdentifier, fieldsOf(t, err)["record"])
}

func TestValidate_ReportsEveryField(t *testing.T) {
	r := validRecord()
	r.NRCNumber = "12345/1/1"
	r.PersonalInfo.FirstName = ""
	r.PersonalInfo.PhonePrimary = "call me"
	r.PersonalInfo.Email = "nope"
	r.PersonalInfo.DateOfBirth = "29/02/1980"
	r.PersonalInfo.Gender = "x"
	bad := 91.0
	r.Address.GPSLatitude = &bad
	r.FarmInfo = &models.FarmInfo{FarmSizeHectares: -1}

	fields := fieldsOf(t, New().Validate(r))

	assert.Equal(t, "must match the NNNNNN/NN/N format", fields["nrc_number"])
	assert.Equal(t, "is required", fields["personal_info.first_name"])
	assert.Contains(t, fields["personal_info.phone_primary"], "phone number")
	assert.Equal(t, "must be a valid email address", fields["personal_info.email"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", fields["personal_info.date_of_birth"])
	assert.Equal(t, "must be one of: male female other", fields["personal_info.gender"])
	assert.Equal(t, "must be less than or equal to 90", fields["address.gps_latitude"])
	assert.Equal(t, "must be greater than or equal to 0", fields["farm_info.farm_size_hectares"])
	assert.NotContains(t, fields, "record")
}

func TestValidate_MissingGroups(t *testing.T) {
	fields := fieldsOf(t, New().Validate(&models.RawRecord{TempID: "t1"}))

	assert.Equal(t, "is required", fields["personal_info"])
	assert.Equal(t, "is required", fields["address"])
}

func TestValidate_Nil(t *testing.T) {
	fields := fieldsOf(t, New().Validate(nil))
	assert.Equal(t, "is required", fields["record"])
}
