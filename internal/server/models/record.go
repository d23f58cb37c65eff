// Package models defines the farmer record shapes (incoming and stored) and
// the batch sync job.
package models

import "strings"

// PersonalInfo groups a farmer's identity and contact attributes.
//
// In a RawRecord every field is plaintext. In a stored Farmer the sensitive
// fields (PhonePrimary, PhoneSecondary, Email, NRC, DateOfBirth) hold
// AEAD tokens produced by cryptox.FieldCipher.Encrypt.
type PersonalInfo struct {
	FirstName      string `json:"first_name" bson:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" bson:"last_name" validate:"required,max=100"`
	PhonePrimary   string `json:"phone_primary,omitempty" bson:"phone_primary,omitempty" validate:"omitempty,phone"`
	PhoneSecondary string `json:"phone_secondary,omitempty" bson:"phone_secondary,omitempty" validate:"omitempty,phone"`
	Email          string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	NRC            string `json:"nrc,omitempty" bson:"nrc,omitempty" validate:"omitempty,nrc"`
	DateOfBirth    string `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty" validate:"omitempty,isodate"`
	Gender         string `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

// Address locates the farmer. In a stored Farmer, Street holds an AEAD token.
type Address struct {
	Province     string   `json:"province,omitempty" bson:"province,omitempty" validate:"max=100"`
	ProvinceName string   `json:"province_name,omitempty" bson:"province_name,omitempty" validate:"max=100"`
	District     string   `json:"district,omitempty" bson:"district,omitempty" validate:"max=100"`
	DistrictName string   `json:"district_name,omitempty" bson:"district_name,omitempty" validate:"max=100"`
	ChiefdomID   string   `json:"chiefdom_id,omitempty" bson:"chiefdom_id,omitempty" validate:"max=100"`
	ChiefdomName string   `json:"chiefdom_name,omitempty" bson:"chiefdom_name,omitempty" validate:"max=100"`
	Village      string   `json:"village,omitempty" bson:"village,omitempty" validate:"max=100"`
	Street       string   `json:"street,omitempty" bson:"street,omitempty"`
	GPSLatitude  *float64 `json:"gps_latitude,omitempty" bson:"gps_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	GPSLongitude *float64 `json:"gps_longitude,omitempty" bson:"gps_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

type FarmInfo struct {
	FarmSizeHectares float64  `json:"farm_size_hectares" bson:"farm_size_hectares" validate:"gte=0"`
	CropsGrown       []string `json:"crops_grown,omitempty" bson:"crops_grown,omitempty" validate:"dive,required"`
	LivestockTypes   []string `json:"livestock_types,omitempty" bson:"livestock_types,omitempty" validate:"dive,required"`
	HasIrrigation    bool     `json:"has_irrigation" bson:"has_irrigation"`
	YearsFarming     int      `json:"years_farming" bson:"years_farming" validate:"gte=0,lte=100"`
}

type HouseholdInfo struct {
	HouseholdSize       *int   `json:"household_size,omitempty" bson:"household_size,omitempty" validate:"omitempty,gte=1"`
	NumberOfDependents  *int   `json:"number_of_dependents,omitempty" bson:"number_of_dependents,omitempty" validate:"omitempty,gte=0"`
	PrimaryIncomeSource string `json:"primary_income_source,omitempty" bson:"primary_income_source,omitempty"`
}

// RawRecord is one farmer record as captured offline by a field agent.
// It carries plaintext and only lives for the duration of processing.
type RawRecord struct {
	TempID        string         `json:"temp_id,omitempty" validate:"omitempty,max=128"`
	NRCNumber     string         `json:"nrc_number,omitempty" validate:"omitempty,nrc"`
	PersonalInfo  *PersonalInfo  `json:"personal_info" validate:"required"`
	Address       *Address       `json:"address" validate:"required"`
	FarmInfo      *FarmInfo      `json:"farm_info,omitempty" validate:"omitempty"`
	HouseholdInfo *HouseholdInfo `json:"household_info,omitempty" validate:"omitempty"`
}

// IdentityNumber returns the national registration number, preferring the
// top-level nrc_number over personal_info.nrc.
func (r *RawRecord) IdentityNumber() string {
	if n := strings.TrimSpace(r.NRCNumber); n != "" {
		return n
	}
	if r.PersonalInfo != nil {
		return strings.TrimSpace(r.PersonalInfo.NRC)
	}
	return ""
}

// PrimaryPhone returns personal_info.phone_primary, if any.
func (r *RawRecord) PrimaryPhone() string {
	if r.PersonalInfo == nil {
		return ""
	}
	return strings.TrimSpace(r.PersonalInfo.PhonePrimary)
}
