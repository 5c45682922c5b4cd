// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("brplate", validateBRPlate)
	validate.RegisterValidation("cnpj", validateCNPJ)
	validate.RegisterValidation("cpf", validateCPF)
	validate.RegisterValidation("ufcode", validateUFCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

var (
	// Mercosul: LLLDLDD. Legacy: LLLDDDD.
	mercosulPlate = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)
	legacyPlate   = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
)

// ValidPlate accepts the Mercosul and legacy Brazilian plate formats,
// uppercase only.
func ValidPlate(plate string) bool {
	return mercosulPlate.MatchString(plate) || legacyPlate.MatchString(plate)
}

func validateBRPlate(fl validator.FieldLevel) bool {
	return ValidPlate(fl.Field().String())
}

// ValidCNPJ checks the two verification digits of a 14-digit CNPJ.
func ValidCNPJ(cnpj string) bool {
	if len(cnpj) != 14 || allSameDigit(cnpj) {
		return false
	}
	for _, r := range cnpj {
		if r < '0' || r > '9' {
			return false
		}
	}
	return cnpjDigit(cnpj, 12) == int(cnpj[12]-'0') &&
		cnpjDigit(cnpj, 13) == int(cnpj[13]-'0')
}

func cnpjDigit(cnpj string, length int) int {
	weight := length - 7
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(cnpj[i]-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func validateCNPJ(fl validator.FieldLevel) bool {
	return ValidCNPJ(fl.Field().String())
}

// ValidCPF checks the two verification digits of an 11-digit CPF.
func ValidCPF(cpf string) bool {
	if len(cpf) != 11 || allSameDigit(cpf) {
		return false
	}
	for _, r := range cpf {
		if r < '0' || r > '9' {
			return false
		}
	}
	return cpfDigit(cpf, 9) == int(cpf[9]-'0') &&
		cpfDigit(cpf, 10) == int(cpf[10]-'0')
}

func cpfDigit(cpf string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(cpf[i]-'0') * (length + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

func validateCPF(fl validator.FieldLevel) bool {
	return ValidCPF(fl.Field().String())
}

var ufCode = regexp.MustCompile(`^([A-Z]{2}|DNIT)$`)

func validateUFCode(fl validator.FieldLevel) bool {
	return ufCode.MatchString(fl.Field().String())
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// OnlyDigits strips everything but 0-9, normalizing formatted CNPJ/CPF input
// like "12.345.678/0001-95".
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "brplate":
		return "Plate must use the Mercosul (ABC1D23) or legacy (ABC1234) format"
	case "cnpj":
		return "Invalid CNPJ"
	case "cpf":
		return "Invalid CPF"
	case "ufcode":
		return "Invalid state code"
	case "datetime":
		return e.Field() + " must be a date in 2006-01-02 format"
	case "url":
		return e.Field() + " must be a valid URL"
	default:
		return e.Field() + " is invalid"
	}
}
