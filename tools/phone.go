package tools

import "fmt"

// FormatPhone aplica a máscara brasileira:
// - 11 dígitos (celular): (XX) XXXXX-XXXX
// - 10 dígitos (fixo):    (XX) XXXX-XXXX
// Qualquer outro tamanho volta como veio.
func FormatPhone(raw string) string {
	d := OnlyDigits(raw)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:])
	}
	return raw
}

// FormatCPF devolve 000.000.000-00 ou a entrada quando não tem 11 dígitos.
func FormatCPF(raw string) string {
	d := OnlyDigits(raw)
	if len(d) != 11 {
		return raw
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
}

// FormatCNPJ devolve 00.000.000/0000-00 ou a entrada quando não tem 14 dígitos.
func FormatCNPJ(raw string) string {
	d := OnlyDigits(raw)
	if len(d) != 14 {
		return raw
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:])
}

func FormatCEP(raw string) string {
	d := OnlyDigits(raw)
	if len(d) != 8 {
		return raw
	}
	return d[:5] + "-" + d[5:]
}
