package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/card"
	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/events"
	"github.com/archie-s/card-vault/internal/repository"
	"github.com/archie-s/card-vault/internal/vault"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// StoreCardInput carries raw card data into the vault. The Expiry field
// accepts the combined "MM/YY" form; when empty, ExpiryMonth and ExpiryYear
// are used directly.
type StoreCardInput struct {
	CardNumber  string
	HolderName  string
	Expiry      string
	ExpiryMonth string
	ExpiryYear  string
}

// StoreCardResult is everything a caller ever gets back from storing a card.
type StoreCardResult struct {
	Token    string
	LastFour string
	Brand    domain.Brand
}

// CardDetails is the decrypted view returned by RetrieveCard only.
type CardDetails struct {
	CardNumber  string
	HolderName  string
	LastFour    string
	ExpiryMonth string
	ExpiryYear  string
	Brand       domain.Brand
}

// CardMetadata is the masked listing view.
type CardMetadata struct {
	Token        string
	LastFour     string
	MaskedNumber string
	ExpiryMonth  string
	ExpiryYear   string
	Brand        domain.Brand
	CreatedAt    time.Time
}

// CardService orchestrates validator, vault and store adapter to implement
// store/retrieve/list/revoke on cards.
type CardService struct {
	cards      repository.CardRepository
	vault      *vault.Vault
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// CardDependencies encapsulates requirements for the card service.
type CardDependencies struct {
	CardRepo   repository.CardRepository
	Vault      *vault.Vault
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCardService builds the service.
func NewCardService(deps CardDependencies) *CardService {
	return &CardService{
		cards:      deps.CardRepo,
		vault:      deps.Vault,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// StoreCard validates, tokenizes and persists a card. Re-submitting an
// identical active card for the same owner returns the existing token
// unchanged; two concurrent submissions converge on one record through the
// storage-layer uniqueness constraint. The caller never receives ciphertext
// or nonce.
func (s *CardService) StoreCard(ctx context.Context, actor events.Actor, owner domain.OwnerRef, input StoreCardInput) (*StoreCardResult, error) {
	expiryMonth, expiryYear, err := normalizeExpiry(input)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(input.CardNumber)
	if len(number) < 13 || len(number) > 19 || !card.ValidateNumber(number) {
		return nil, apperrors.NewInvalidCardNumber()
	}

	month, _ := strconv.Atoi(expiryMonth)
	year, _ := strconv.Atoi(expiryYear)
	if card.IsExpired(month, year, s.now()) {
		return nil, apperrors.NewInvalidExpiry("card has expired")
	}

	lastFour := card.LastFour(number)

	existing, err := s.cards.FindActive(ctx, owner, lastFour, expiryMonth, expiryYear)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		s.publishStored(ctx, actor, existing, true)
		return &StoreCardResult{Token: existing.Token, LastFour: existing.LastFour, Brand: existing.Brand}, nil
	}

	token, enc, err := s.vault.Tokenize(number)
	if err != nil {
		return nil, err
	}

	record := &domain.CardRecord{
		ID:           uuid.NewString(),
		Owner:        owner,
		Token:        token,
		Ciphertext:   enc.Ciphertext,
		Nonce:        enc.Nonce,
		AuthTag:      enc.AuthTag,
		HolderName:   strings.TrimSpace(input.HolderName),
		LastFour:     lastFour,
		MaskedNumber: card.MaskNumber(number),
		Brand:        card.DetectBrand(number),
		ExpiryMonth:  expiryMonth,
		ExpiryYear:   expiryYear,
		IsActive:     true,
	}

	if err := s.cards.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateCard) {
			// Lost the race against an identical submission; the winner's
			// record is the canonical one.
			winner, findErr := s.cards.FindActive(ctx, owner, lastFour, expiryMonth, expiryYear)
			if findErr != nil {
				return nil, findErr
			}
			s.publishStored(ctx, actor, winner, true)
			return &StoreCardResult{Token: winner.Token, LastFour: winner.LastFour, Brand: winner.Brand}, nil
		}
		return nil, err
	}

	s.logger.Info("card stored",
		zap.String("owner", owner.Key()),
		zap.String("last_four", record.LastFour),
		zap.String("brand", string(record.Brand)))
	s.publishStored(ctx, actor, record, false)

	return &StoreCardResult{Token: record.Token, LastFour: record.LastFour, Brand: record.Brand}, nil
}

// RetrieveCard decrypts and returns the full card number for an active record
// of the owner. This is the only operation that reconstitutes plaintext;
// callers are expected to use the result immediately and never persist it.
func (s *CardService) RetrieveCard(ctx context.Context, actor events.Actor, owner domain.OwnerRef, token string) (*CardDetails, error) {
	record, err := s.cards.FindActiveByToken(ctx, owner, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("card", nil)
		}
		return nil, err
	}

	number, err := s.vault.Detokenize(vault.EncryptedCard{
		Nonce:      record.Nonce,
		Ciphertext: record.Ciphertext,
		AuthTag:    record.AuthTag,
	})
	if err != nil {
		s.logger.Error("stored card failed decryption",
			zap.String("owner", owner.Key()),
			zap.String("token", token),
			zap.Error(err))
		s.publish(ctx, events.Event{
			Type:     events.EventDecryptFailed,
			Actor:    actor,
			Resource: "cards",
			RecordID: record.ID,
			Payload:  events.DecryptFailedPayload{Token: token},
		})
		return nil, apperrors.NewDecryptionFailed(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventCardRetrieved,
		Actor:    actor,
		Resource: "cards",
		RecordID: record.ID,
	})

	return &CardDetails{
		CardNumber:  number,
		HolderName:  record.HolderName,
		LastFour:    record.LastFour,
		ExpiryMonth: record.ExpiryMonth,
		ExpiryYear:  record.ExpiryYear,
		Brand:       record.Brand,
	}, nil
}

// ListCards returns masked metadata for the owner's active records.
func (s *CardService) ListCards(ctx context.Context, owner domain.OwnerRef) ([]CardMetadata, error) {
	records, err := s.cards.ListActive(ctx, owner)
	if err != nil {
		return nil, err
	}

	items := make([]CardMetadata, 0, len(records))
	for _, record := range records {
		items = append(items, CardMetadata{
			Token:        record.Token,
			LastFour:     record.LastFour,
			MaskedNumber: record.MaskedNumber,
			ExpiryMonth:  record.ExpiryMonth,
			ExpiryYear:   record.ExpiryYear,
			Brand:        record.Brand,
			CreatedAt:    record.CreatedAt,
		})
	}
	return items, nil
}

// RevokeCard deactivates exactly one matching record. Zero rows affected is a
// NotFound, never a silent no-op.
func (s *CardService) RevokeCard(ctx context.Context, actor events.Actor, owner domain.OwnerRef, token string) error {
	affected, err := s.cards.Deactivate(ctx, owner, token)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFound("card", nil)
	}

	s.logger.Info("card revoked", zap.String("owner", owner.Key()))
	s.publish(ctx, events.Event{
		Type:     events.EventCardRevoked,
		Actor:    actor,
		Resource: "cards",
		Payload:  events.CardRevokedPayload{Token: token},
	})
	return nil
}

func (s *CardService) publishStored(ctx context.Context, actor events.Actor, record *domain.CardRecord, reused bool) {
	s.publish(ctx, events.Event{
		Type:     events.EventCardStored,
		Actor:    actor,
		Resource: "cards",
		RecordID: record.ID,
		Payload: events.CardStoredPayload{
			Token:    record.Token,
			LastFour: record.LastFour,
			Brand:    record.Brand,
			Reused:   reused,
		},
	})
}

func (s *CardService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	event.IPAddress = event.Actor.IP
	_ = s.dispatcher.Publish(ctx, event)
}

// normalizeExpiry resolves the accepted expiry forms to zero-padded two-digit
// month and two- or four-digit year strings.
func normalizeExpiry(input StoreCardInput) (string, string, error) {
	month := strings.TrimSpace(input.ExpiryMonth)
	year := strings.TrimSpace(input.ExpiryYear)

	if combined := strings.TrimSpace(input.Expiry); combined != "" {
		parts := strings.SplitN(combined, "/", 2)
		if len(parts) != 2 {
			return "", "", apperrors.NewInvalidExpiry("expiry must be in MM/YY format")
		}
		month, year = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}

	if month == "" || year == "" {
		return "", "", apperrors.NewInvalidExpiry("expiry month and year required")
	}

	monthNum, err := strconv.Atoi(month)
	if err != nil || monthNum < 1 || monthNum > 12 {
		return "", "", apperrors.NewInvalidExpiry("invalid expiry month")
	}
	yearNum, err := strconv.Atoi(year)
	if err != nil || yearNum < 0 || (len(year) != 2 && len(year) != 4) {
		return "", "", apperrors.NewInvalidExpiry("invalid expiry year")
	}

	return fmt.Sprintf("%02d", monthNum), year, nil
}
