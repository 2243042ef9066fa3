package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/archie-s/card-vault/internal/domain"
)

func TestValidateNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{"visa test number", "4111111111111111", true},
		{"mastercard test number", "5500005555555559", true},
		{"amex test number", "378282246310005", true},
		{"discover test number", "6011111111111117", true},
		{"13 digit visa", "4222222222222", true},
		{"single flipped digit", "4111111111111112", false},
		{"another flipped digit", "4111111111121111", false},
		{"empty", "", false},
		{"non digits", "4111-1111-1111-1111", false},
		{"letters", "abcd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateNumber(tt.number))
		})
	}
}

func TestDetectBrand(t *testing.T) {
	tests := []struct {
		number string
		want   domain.Brand
	}{
		{"4111111111111111", domain.BrandVisa},
		{"4222222222222", domain.BrandVisa},
		{"4111111111111111111", domain.BrandVisa},
		{"5500005555555559", domain.BrandMastercard},
		{"5105105105105100", domain.BrandMastercard},
		{"378282246310005", domain.BrandAmex},
		{"341111111111111", domain.BrandAmex},
		{"6011111111111117", domain.BrandDiscover},
		{"6511111111111111", domain.BrandDiscover},
		{"3566002020360505", domain.BrandOther},
		{"1234567890123", domain.BrandOther},
		{"", domain.BrandOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectBrand(tt.number), "number %q", tt.number)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, time.September, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		month int
		year  int
		want  bool
	}{
		{"current month is valid", 9, 2026, false},
		{"one month prior is expired", 8, 2026, true},
		{"previous year is expired", 12, 2025, true},
		{"next month is valid", 10, 2026, false},
		{"next year is valid", 1, 2027, false},
		{"two digit current year", 9, 26, false},
		{"two digit expired year", 1, 25, true},
		{"two digit future year", 1, 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(tt.month, tt.year, now))
		})
	}
}

func TestMaskNumber(t *testing.T) {
	assert.Equal(t, "************1111", MaskNumber("4111111111111111"))
	assert.Equal(t, "***********0005", MaskNumber("378282246310005"))
	assert.Equal(t, "1111", MaskNumber("1111"))
}

func TestLastFour(t *testing.T) {
	assert.Equal(t, "1111", LastFour("4111111111111111"))
	assert.Equal(t, "123", LastFour("123"))
}
