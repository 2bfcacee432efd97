// Package validation содержит функции валидации входных данных.
package validation

import "strings"

const trackingPrefix = "TR"

// IsValidTrackingNumber проверяет формат трек-номера: "TR" и шесть шестнадцатеричных символов в верхнем регистре.
func IsValidTrackingNumber(number string) bool {
	if !strings.HasPrefix(number, trackingPrefix) {
		return false
	}

	rest := number[len(trackingPrefix):]
	if len(rest) != 6 {
		return false
	}

	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if !(ch >= '0' && ch <= '9') && !(ch >= 'A' && ch <= 'F') {
			return false
		}
	}

	return true
}

// NormalizeTrackingNumber убирает пробелы и приводит номер к верхнему регистру.
func NormalizeTrackingNumber(number string) string {
	return strings.ToUpper(strings.Join(strings.Fields(number), ""))
}
