package dto

import (
	"time"

	"github.com/archie-s/card-vault/internal/domain"
)

// StoreCardRequest payload. Expiry may be supplied either combined ("MM/YY")
// or as separate month/year fields.
type StoreCardRequest struct {
	CardNumber     string `json:"card_number"`
	CardholderName string `json:"cardholder_name"`
	Expiry         string `json:"expiry,omitempty"`
	ExpiryMonth    string `json:"expiry_month,omitempty"`
	ExpiryYear     string `json:"expiry_year,omitempty"`
}

// StoreCardResponse returns the token reference only.
type StoreCardResponse struct {
	Token    string       `json:"token"`
	LastFour string       `json:"last_four"`
	Brand    domain.Brand `json:"brand"`
}

// CardSummary is the masked listing entry; it never carries ciphertext or
// full numbers.
type CardSummary struct {
	Token        string       `json:"token"`
	LastFour     string       `json:"last_four"`
	MaskedNumber string       `json:"masked_number"`
	ExpiryMonth  string       `json:"expiry_month"`
	ExpiryYear   string       `json:"expiry_year"`
	Brand        domain.Brand `json:"brand"`
	CreatedAt    time.Time    `json:"created_at"`
}

// CardDetailResponse is the decrypted view returned by retrieval only.
type CardDetailResponse struct {
	CardNumber     string       `json:"card_number"`
	CardholderName string       `json:"cardholder_name"`
	LastFour       string       `json:"last_four"`
	ExpiryMonth    string       `json:"expiry_month"`
	ExpiryYear     string       `json:"expiry_year"`
	Brand          domain.Brand `json:"brand"`
}
