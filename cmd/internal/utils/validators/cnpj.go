package validators

import "strings"

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidCNPJ checks the two verifying digits of a raw 14 digit CNPJ.
func ValidCNPJ(digits string) bool {
	if len(digits) != 14 || strings.Trim(digits, "0123456789") != "" {
		return false
	}

	if strings.Count(digits, digits[:1]) == len(digits) {
		return false
	}
	return cnpjDigit(digits[:12]) == digits[12] && cnpjDigit(digits[:13]) == digits[13]
}

// cnpjDigit computes the verifying digit of base, which holds 12 or 13 digits.
func cnpjDigit(base string) byte {
	weights := cnpjWeights[len(cnpjWeights)-len(base):]

	sum := 0
	for i := range base {
		sum += int(base[i]-'0') * weights[i]
	}

	if r := sum % 11; r >= 2 {
		return byte('0' + 11 - r)
	}
	return '0'
}
