package card

import (
	"regexp"
	"strings"
	"time"

	"github.com/archie-s/card-vault/internal/domain"
)

var brandPatterns = []struct {
	brand   domain.Brand
	pattern *regexp.Regexp
}{
	{domain.BrandVisa, regexp.MustCompile(`^4[0-9]{12}(?:[0-9]{3})?(?:[0-9]{3})?$`)},
	{domain.BrandMastercard, regexp.MustCompile(`^5[1-5][0-9]{14}$`)},
	{domain.BrandAmex, regexp.MustCompile(`^3[47][0-9]{13}$`)},
	{domain.BrandDiscover, regexp.MustCompile(`^6(?:011|5[0-9]{2})[0-9]{12}$`)},
}

// ValidateNumber applies the Luhn checksum to the candidate. Empty input or
// anything containing a non-digit fails without error.
func ValidateNumber(candidate string) bool {
	if candidate == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(candidate) - 1; i >= 0; i-- {
		c := candidate[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// DetectBrand matches the number against fixed prefix/length patterns.
// Numbers matching none of them are BrandOther.
func DetectBrand(candidate string) domain.Brand {
	for _, p := range brandPatterns {
		if p.pattern.MatchString(candidate) {
			return p.brand
		}
	}
	return domain.BrandOther
}

// IsExpired reports whether a card with the given expiry is past its validity
// at the supplied instant. Two-digit years are interpreted in the 2000s.
// A card expiring in the current month is not expired.
func IsExpired(month, year int, now time.Time) bool {
	if year < 100 {
		year += 2000
	}
	if year < now.Year() {
		return true
	}
	if year == now.Year() && month < int(now.Month()) {
		return true
	}
	return false
}

// MaskNumber replaces all but the last four digits with '*'.
func MaskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// LastFour returns the trailing four digits used for display and lookup.
func LastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
