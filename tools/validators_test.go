package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCPFValid(t *testing.T) {
	testCases := []struct {
		cpf      string
		expected bool
	}{
		{"111.444.777-35", true},
		{"11144477735", true},
		{"529.982.247-25", true},
		{"111.111.111-11", false},
		{"000.000.000-00", false},
		{"111.444.777-36", false},
		{"111.444.777-3", false},
		{"1114447773555", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.cpf, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsCPFValid(tc.cpf))
		})
	}
}

func TestIsCNPJValid(t *testing.T) {
	testCases := []struct {
		cnpj     string
		expected bool
	}{
		{"11.222.333/0001-81", true},
		{"11222333000181", true},
		{"11.222.333/0001-82", false},
		{"11.111.111/1111-11", false},
		{"11.222.333/0001", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.cnpj, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsCNPJValid(tc.cnpj))
		})
	}
}

func TestIsCEPValid(t *testing.T) {
	assert.True(t, IsCEPValid("01310-100"))
	assert.True(t, IsCEPValid("01310100"))
	assert.False(t, IsCEPValid("00000-000"))
	assert.False(t, IsCEPValid("1310-100"))
}

func TestFormatPhone(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"11987654321", "(11) 98765-4321"},
		{"(11) 98765-4321", "(11) 98765-4321"},
		{"1134567890", "(11) 3456-7890"},
		{"12345", "12345"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatPhone(tc.input))
		})
	}
}

func TestFormatDocuments(t *testing.T) {
	assert.Equal(t, "111.444.777-35", FormatCPF("11144477735"))
	assert.Equal(t, "11.222.333/0001-81", FormatCNPJ("11222333000181"))
	assert.Equal(t, "01310-100", FormatCEP("01310100"))
	assert.Equal(t, "123", FormatCEP("123"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("servidor@prefeitura.sp.gov.br"))
	assert.False(t, ValidateEmail("servidor@"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("senha-forte")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash(hash, "senha-forte"))
	assert.False(t, CheckPasswordHash(hash, "outra"))
	assert.Equal(t, "senha", CheckPassword("curta"))
}
