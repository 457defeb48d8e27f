package tools

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// CheckPassword devolve o nome do campo inválido ou "".
func CheckPassword(password string) string {
	if len(password) < 8 {
		return "senha"
	}
	return ""
}

// OnlyDigits remove tudo que não é dígito.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}

// IsCPFValid aceita CPF com ou sem máscara e confere os dois dígitos verificadores.
func IsCPFValid(cpf string) bool {
	d := OnlyDigits(cpf)
	if len(d) != 11 || allSameDigit(d) {
		return false
	}
	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(d[i]-'0') * (pos + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != int(d[pos]-'0') {
			return false
		}
	}
	return true
}

var cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
var cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// IsCNPJValid aceita CNPJ com ou sem máscara e confere os dois dígitos verificadores.
func IsCNPJValid(cnpj string) bool {
	d := OnlyDigits(cnpj)
	if len(d) != 14 || allSameDigit(d) {
		return false
	}
	return cnpjCheck(d, cnpjWeights1) == int(d[12]-'0') &&
		cnpjCheck(d, cnpjWeights2) == int(d[13]-'0')
}

func cnpjCheck(d string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(d[i]-'0') * w
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// IsCEPValid exige 8 dígitos e rejeita 00000-000.
func IsCEPValid(cep string) bool {
	d := OnlyDigits(cep)
	return len(d) == 8 && d != "00000000"
}
