package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/events"
	"github.com/archie-s/card-vault/internal/repository"
	"github.com/archie-s/card-vault/internal/vault"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

const testMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeCardRepo struct {
	records   []*domain.CardRecord
	insertErr error
}

func (f *fakeCardRepo) FindActive(_ context.Context, owner domain.OwnerRef, lastFour, expiryMonth, expiryYear string) (*domain.CardRecord, error) {
	for _, record := range f.records {
		if record.IsActive && record.Owner == owner &&
			record.LastFour == lastFour && record.ExpiryMonth == expiryMonth && record.ExpiryYear == expiryYear {
			return record, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCardRepo) FindActiveByToken(_ context.Context, owner domain.OwnerRef, token string) (*domain.CardRecord, error) {
	for _, record := range f.records {
		if record.IsActive && record.Owner == owner && record.Token == token {
			return record, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCardRepo) Insert(_ context.Context, card *domain.CardRecord) error {
	if f.insertErr != nil {
		err := f.insertErr
		f.insertErr = nil
		return err
	}
	f.records = append(f.records, card)
	return nil
}

func (f *fakeCardRepo) Deactivate(_ context.Context, owner domain.OwnerRef, token string) (int64, error) {
	var affected int64
	for _, record := range f.records {
		if record.IsActive && record.Owner == owner && record.Token == token {
			record.IsActive = false
			affected++
		}
	}
	return affected, nil
}

func (f *fakeCardRepo) ListActive(_ context.Context, owner domain.OwnerRef) ([]domain.CardRecord, error) {
	var out []domain.CardRecord
	for _, record := range f.records {
		if record.IsActive && record.Owner == owner {
			out = append(out, *record)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newTestService(t *testing.T, repo repository.CardRepository, dispatcher events.Dispatcher) *CardService {
	t.Helper()
	v, err := vault.New(testMasterKey)
	require.NoError(t, err)
	return NewCardService(CardDependencies{
		CardRepo:   repo,
		Vault:      v,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

var (
	testActor = events.Actor{UserID: "user-1", Role: "customer", IP: "10.0.0.1"}
	testOwner = domain.UserOwner("user-1")
	testInput = StoreCardInput{CardNumber: "4111111111111111", HolderName: "Ada Lovelace", Expiry: "12/49"}
)

func TestStoreCardPersistsAndPublishes(t *testing.T) {
	repo := &fakeCardRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(t, repo, dispatcher)

	result, err := svc.StoreCard(context.Background(), testActor, testOwner, testInput)
	require.NoError(t, err)

	assert.Len(t, result.Token, 64)
	assert.Equal(t, "1111", result.LastFour)
	assert.Equal(t, domain.BrandVisa, result.Brand)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	assert.Equal(t, testOwner, record.Owner)
	assert.Equal(t, "************1111", record.MaskedNumber)
	assert.NotContains(t, record.Ciphertext, "4111111111111111")
	assert.True(t, record.IsActive)

	require.Len(t, dispatcher.published, 1)
	event := dispatcher.published[0]
	assert.Equal(t, events.EventCardStored, event.Type)
	assert.Equal(t, "10.0.0.1", event.IPAddress)
	payload, ok := event.Payload.(events.CardStoredPayload)
	require.True(t, ok)
	assert.False(t, payload.Reused)
}

func TestStoreCardIsIdempotent(t *testing.T) {
	repo := &fakeCardRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(t, repo, dispatcher)
	ctx := context.Background()

	first, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)
	second, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Len(t, repo.records, 1)

	require.Len(t, dispatcher.published, 2)
	payload, ok := dispatcher.published[1].Payload.(events.CardStoredPayload)
	require.True(t, ok)
	assert.True(t, payload.Reused)
}

func TestStoreCardSameNumberDifferentOwners(t *testing.T) {
	repo := &fakeCardRepo{}
	svc := newTestService(t, repo, &recordingDispatcher{})
	ctx := context.Background()

	first, err := svc.StoreCard(ctx, testActor, domain.UserOwner("user-1"), testInput)
	require.NoError(t, err)
	second, err := svc.StoreCard(ctx, events.Actor{UserID: "user-2"}, domain.UserOwner("user-2"), testInput)
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Len(t, repo.records, 2)
}

// racingCardRepo makes the first duplicate check miss, as if a concurrent
// identical submission committed between the check and the insert.
type racingCardRepo struct {
	fakeCardRepo
	missedFind bool
}

func (r *racingCardRepo) FindActive(ctx context.Context, owner domain.OwnerRef, lastFour, expiryMonth, expiryYear string) (*domain.CardRecord, error) {
	if !r.missedFind {
		r.missedFind = true
		return nil, pgx.ErrNoRows
	}
	return r.fakeCardRepo.FindActive(ctx, owner, lastFour, expiryMonth, expiryYear)
}

func TestStoreCardLosingInsertRaceReturnsWinner(t *testing.T) {
	repo := &racingCardRepo{}
	repo.insertErr = repository.ErrDuplicateCard
	repo.records = append(repo.records, &domain.CardRecord{
		ID:          "winner",
		Owner:       testOwner,
		Token:       "winner-token",
		LastFour:    "1111",
		Brand:       domain.BrandVisa,
		ExpiryMonth: "12",
		ExpiryYear:  "49",
		IsActive:    true,
	})
	svc := newTestService(t, repo, &recordingDispatcher{})

	result, err := svc.StoreCard(context.Background(), testActor, testOwner, testInput)
	require.NoError(t, err)
	assert.Equal(t, "winner-token", result.Token)
	assert.Len(t, repo.records, 1)
}

func TestStoreCardRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, &fakeCardRepo{}, &recordingDispatcher{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input StoreCardInput
		code  string
	}{
		{"luhn failure", StoreCardInput{CardNumber: "4111111111111112", Expiry: "12/49"}, "INVALID_CARD_NUMBER"},
		{"too short", StoreCardInput{CardNumber: "411111111111", Expiry: "12/49"}, "INVALID_CARD_NUMBER"},
		{"non digits", StoreCardInput{CardNumber: "4111-1111-1111-1111", Expiry: "12/49"}, "INVALID_CARD_NUMBER"},
		{"malformed expiry", StoreCardInput{CardNumber: "4111111111111111", Expiry: "1249"}, "INVALID_EXPIRY"},
		{"month out of range", StoreCardInput{CardNumber: "4111111111111111", Expiry: "13/49"}, "INVALID_EXPIRY"},
		{"expired card", StoreCardInput{CardNumber: "4111111111111111", Expiry: "01/20"}, "INVALID_EXPIRY"},
		{"missing expiry", StoreCardInput{CardNumber: "4111111111111111"}, "INVALID_EXPIRY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StoreCard(ctx, testActor, testOwner, tt.input)
			assert.Equal(t, tt.code, domainCode(t, err))
		})
	}
}

func TestRetrieveCardRoundTrip(t *testing.T) {
	repo := &fakeCardRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(t, repo, dispatcher)
	ctx := context.Background()

	stored, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)

	details, err := svc.RetrieveCard(ctx, testActor, testOwner, stored.Token)
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", details.CardNumber)
	assert.Equal(t, "Ada Lovelace", details.HolderName)
	assert.Equal(t, "12", details.ExpiryMonth)
	assert.Equal(t, "49", details.ExpiryYear)

	last := dispatcher.published[len(dispatcher.published)-1]
	assert.Equal(t, events.EventCardRetrieved, last.Type)
}

func TestRetrieveCardIsolatedByOwner(t *testing.T) {
	repo := &fakeCardRepo{}
	svc := newTestService(t, repo, &recordingDispatcher{})
	ctx := context.Background()

	stored, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)

	_, err = svc.RetrieveCard(ctx, events.Actor{UserID: "user-2"}, domain.UserOwner("user-2"), stored.Token)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestRetrieveCardTamperedCiphertext(t *testing.T) {
	repo := &fakeCardRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(t, repo, dispatcher)
	ctx := context.Background()

	stored, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)
	repo.records[0].AuthTag = "00000000000000000000000000000000"

	_, err = svc.RetrieveCard(ctx, testActor, testOwner, stored.Token)
	assert.Equal(t, "DECRYPTION_FAILED", domainCode(t, err))

	last := dispatcher.published[len(dispatcher.published)-1]
	assert.Equal(t, events.EventDecryptFailed, last.Type)
}

func TestListCardsReturnsMaskedMetadataOnly(t *testing.T) {
	repo := &fakeCardRepo{}
	svc := newTestService(t, repo, &recordingDispatcher{})
	ctx := context.Background()

	_, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)
	_, err = svc.StoreCard(ctx, testActor, testOwner, StoreCardInput{
		CardNumber: "5555555555554444",
		HolderName: "Ada Lovelace",
		Expiry:     "11/48",
	})
	require.NoError(t, err)

	cards, err := svc.ListCards(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.Len(t, card.LastFour, 4)
		assert.Contains(t, card.MaskedNumber, "****")
		assert.NotEmpty(t, card.Token)
	}
}

func TestRevokeCardThenRetrieveNotFound(t *testing.T) {
	repo := &fakeCardRepo{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(t, repo, dispatcher)
	ctx := context.Background()

	stored, err := svc.StoreCard(ctx, testActor, testOwner, testInput)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeCard(ctx, testActor, testOwner, stored.Token))

	_, err = svc.RetrieveCard(ctx, testActor, testOwner, stored.Token)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	err = svc.RevokeCard(ctx, testActor, testOwner, stored.Token)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestRevokeUnknownTokenNotFound(t *testing.T) {
	svc := newTestService(t, &fakeCardRepo{}, &recordingDispatcher{})

	err := svc.RevokeCard(context.Background(), testActor, testOwner, "no-such-token")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}
