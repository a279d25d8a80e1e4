package domain

import "strings"

// NormalizeCPF strips punctuation so "529.982.247-25" and "52998224725" compare equal
func NormalizeCPF(cpf string) string {
	return digitsOnly(cpf)
}

// ValidCPF checks length, repeated digits and both check digits
func ValidCPF(cpf string) bool {
	digits := digitsOnly(cpf)
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}
	return cpfCheckDigit(digits[:9]) == digits[9] && cpfCheckDigit(digits[:10]) == digits[10]
}

// FormatCPF renders 11 digits as 000.000.000-00; other input is returned unchanged
func FormatCPF(cpf string) string {
	d := digitsOnly(cpf)
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
