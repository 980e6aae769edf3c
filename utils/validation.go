package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	aadhaarRegex = regexp.MustCompile(`^[2-9][0-9]{11}$`)
	mobileRegex  = regexp.MustCompile(`^[0-9]{10}$`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	mustRegister("aadhaar", func(fl validator.FieldLevel) bool {
		return ValidateAadhaar(fl.Field().String())
	})
	mustRegister("personname", func(fl validator.FieldLevel) bool {
		return ValidatePersonName(fl.Field().String())
	})
	mustRegister("mobile", func(fl validator.FieldLevel) bool {
		return ValidateMobile(fl.Field().String())
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Verhoeff tables.
var (
	verhoeffD = [10][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}
	verhoeffP = [8][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 7, 6, 8, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}
)

// verhoeffValid checks a digit string whose last digit is the check digit.
func verhoeffValid(num string) bool {
	c := 0
	for i := 0; i < len(num); i++ {
		digit := int(num[len(num)-1-i] - '0')
		c = verhoeffD[c][verhoeffP[i%8][digit]]
	}
	return c == 0
}

// ValidateAadhaar accepts 12 digits, not starting with 0 or 1, whose last
// digit is the Verhoeff checksum of the first eleven.
func ValidateAadhaar(aadhaar string) bool {
	return aadhaarRegex.MatchString(aadhaar) && verhoeffValid(aadhaar)
}

func ValidateMobile(mobile string) bool {
	return mobileRegex.MatchString(mobile)
}

// ValidatePersonName allows up to 80 characters and no digits.
func ValidatePersonName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len([]rune(name)) <= 80 && !digitRegex.MatchString(name)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func FormatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errs
	}
	for _, fieldError := range validationErrors {
		field := fieldError.Field()
		switch fieldError.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errs[field] = "Invalid email format"
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
		case "len":
			errs[field] = fmt.Sprintf("%s must be exactly %s characters", field, fieldError.Param())
		case "numeric":
			errs[field] = fmt.Sprintf("%s must contain only digits", field)
		case "oneof":
			errs[field] = fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
		case "aadhaar":
			errs[field] = "Aadhaar number is invalid"
		case "mobile":
			errs[field] = "mobile must be 10 digits"
		case "personname":
			errs[field] = "name must be at most 80 characters and contain no digits"
		case "eq":
			errs[field] = fmt.Sprintf("%s must be accepted", field)
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return errs
}
