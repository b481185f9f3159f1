package notify

import "strings"

// CountryCode is prefixed to local Brazilian numbers
const CountryCode = "55"

// NormalizePhone strips everything but digits and prefixes the country code
// when the result has a local landline or mobile length (10 or 11 digits).
// Other lengths are returned as digits only; an empty result means the number
// cannot be dialled.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(digits) == 10 || len(digits) == 11 {
		return CountryCode + digits
	}
	return digits
}
