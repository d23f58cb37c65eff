// Package validator checks incoming farmer records before reconciliation.
// Validation is pure: it never touches storage or cryptographic material.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/go-playground/validator/v10"
)

var (
	nrcPattern   = regexp.MustCompile(`^[0-9]{6}/[0-9]{2}/[0-9]$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

const missingIdentifier = "one of temp_id, nrc_number, personal_info.nrc or personal_info.phone_primary is required"

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the record-specific rules registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// registration only fails on empty tags or nil funcs
	_ = v.RegisterValidation("nrc", func(fl validator.FieldLevel) bool {
		return nrcPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Validate returns nil or a *common.ValidationError listing every failing
// field. A record without any identifying key (temp_id, identity number or
// primary phone) is rejected: it could never be matched later and creating
// it would risk silent duplicates.
func (v *Validator) Validate(r *models.RawRecord) error {
	if r == nil {
		return &common.ValidationError{Fields: []common.FieldError{{Field: "record", Message: "is required"}}}
	}

	var fields []common.FieldError

	if err := v.v.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate record: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, common.FieldError{Field: fieldPath(fe), Message: message(fe)})
		}
	}

	if strings.TrimSpace(r.TempID) == "" && r.IdentityNumber() == "" && r.PrimaryPhone() == "" {
		fields = append(fields, common.FieldError{Field: "record", Message: missingIdentifier})
	}

	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath drops the root struct name: "RawRecord.personal_info.email" -> "personal_info.email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "nrc":
		return "must match the NNNNNN/NN/N format"
	case "phone":
		return "must be a phone number of 7 to 15 digits with optional leading +"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	}
	return "failed the " + fe.Tag() + " check"
}
