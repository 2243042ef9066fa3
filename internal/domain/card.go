package domain

import "time"

// Brand enumerates detected card networks.
type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiscover   Brand = "discover"
	BrandOther      Brand = "other"
)

// CardRecord is the persisted form of a tokenized card. The plaintext number
// exists only transiently inside the vault; everything stored here is either
// ciphertext or display-safe metadata.
type CardRecord struct {
	ID           string
	Owner        OwnerRef
	Token        string
	Ciphertext   string // hex
	Nonce        string // hex
	AuthTag      string // hex
	HolderName   string
	LastFour     string
	MaskedNumber string
	Brand        Brand
	ExpiryMonth  string
	ExpiryYear   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
