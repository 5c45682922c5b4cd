// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPlate(t *testing.T) {
	valid := []string{"ABC1D23", "XYZ9K07", "ABC1234", "KNT0199"}
	for _, plate := range valid {
		assert.True(t, ValidPlate(plate), plate)
	}

	invalid := []string{"", "abc1d23", "AB12345", "ABCD123", "ABC12D3", "ABC1D2", "ABC1D234"}
	for _, plate := range invalid {
		assert.False(t, ValidPlate(plate), plate)
	}
}

func TestValidCNPJ(t *testing.T) {
	// 11.222.333/0001-81 is the canonical test CNPJ with correct check digits.
	assert.True(t, ValidCNPJ("11222333000181"))
	assert.True(t, ValidCNPJ("19131243000197"))

	assert.False(t, ValidCNPJ("11222333000180"), "wrong check digit")
	assert.False(t, ValidCNPJ("00000000000000"), "repeated digits")
	assert.False(t, ValidCNPJ("1122233300018"), "too short")
	assert.False(t, ValidCNPJ("11222333A00181"), "non-digit")
	assert.False(t, ValidCNPJ(""))
}

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("52998224725"))
	assert.False(t, ValidCPF("52998224724"), "wrong check digit")
	assert.False(t, ValidCPF("11111111111"), "repeated digits")
	assert.False(t, ValidCPF("5299822472"))
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "11222333000181", OnlyDigits("11.222.333/0001-81"))
	assert.Equal(t, "", OnlyDigits("abc"))
}

func TestValidateStructCustomTags(t *testing.T) {
	type dto struct {
		Plate string `validate:"required,brplate"`
		State string `validate:"required,ufcode"`
	}

	assert.NoError(t, ValidateStruct(&dto{Plate: "ABC1D23", State: "SP"}))
	assert.NoError(t, ValidateStruct(&dto{Plate: "ABC1234", State: "DNIT"}))

	err := ValidateStruct(&dto{Plate: "bad", State: "sp"})
	assert.Error(t, err)
	errs := GetValidationErrors(err)
	assert.Len(t, errs, 2)
}

func TestGenerateRequestNumberFormat(t *testing.T) {
	number, err := GenerateRequestNumber()
	assert.NoError(t, err)
	assert.Regexp(t, `^AET-\d{4}-[23456789ABCDEFGHJKMNPQRSTUVWXYZ]{6}$`, number)

	other, err := GenerateRequestNumber()
	assert.NoError(t, err)
	assert.NotEqual(t, number, other)
}
