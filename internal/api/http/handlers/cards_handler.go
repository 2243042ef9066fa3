package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/archie-s/card-vault/internal/api/dto"
	"github.com/archie-s/card-vault/internal/auth"
	"github.com/archie-s/card-vault/internal/events"
	"github.com/archie-s/card-vault/internal/service"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// CardsHandler manages card vault endpoints. All routes run behind the auth
// and permission middlewares; handlers only translate between HTTP and the
// card service.
type CardsHandler struct {
	service *service.CardService
}

// NewCardsHandler constructs handler.
func NewCardsHandler(cardService *service.CardService) *CardsHandler {
	return &CardsHandler{service: cardService}
}

func actorFor(c *fiber.Ctx, principal *auth.Principal) events.Actor {
	actor := events.Actor{}
	if principal.User != nil {
		actor.UserID = principal.User.ID
		actor.Role = principal.Role()
	}
	actor.IP = c.IP()
	return actor
}

// StoreCard POST /cards.
func (h *CardsHandler) StoreCard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StoreCardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CardNumber == "" || req.CardholderName == "" {
		return apperrors.NewValidationError("card_number and cardholder_name required", nil)
	}

	result, err := h.service.StoreCard(c.Context(), actorFor(c, principal), principal.Owner, service.StoreCardInput{
		CardNumber:  req.CardNumber,
		HolderName:  req.CardholderName,
		Expiry:      req.Expiry,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StoreCardResponse{
		Token:    result.Token,
		LastFour: result.LastFour,
		Brand:    result.Brand,
	}})
}

// ListCards GET /cards.
func (h *CardsHandler) ListCards(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	cards, err := h.service.ListCards(c.Context(), principal.Owner)
	if err != nil {
		return err
	}
	items := make([]dto.CardSummary, 0, len(cards))
	for _, card := range cards {
		items = append(items, dto.CardSummary{
			Token:        card.Token,
			LastFour:     card.LastFour,
			MaskedNumber: card.MaskedNumber,
			ExpiryMonth:  card.ExpiryMonth,
			ExpiryYear:   card.ExpiryYear,
			Brand:        card.Brand,
			CreatedAt:    card.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// RetrieveCard GET /cards/:token. The only endpoint returning the full
// number; consumers must use it immediately and never store it.
func (h *CardsHandler) RetrieveCard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	details, err := h.service.RetrieveCard(c.Context(), actorFor(c, principal), principal.Owner, c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CardDetailResponse{
		CardNumber:     details.CardNumber,
		CardholderName: details.HolderName,
		LastFour:       details.LastFour,
		ExpiryMonth:    details.ExpiryMonth,
		ExpiryYear:     details.ExpiryYear,
		Brand:          details.Brand,
	}})
}

// RevokeCard DELETE /cards/:token.
func (h *CardsHandler) RevokeCard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.RevokeCard(c.Context(), actorFor(c, principal), principal.Owner, c.Params("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"revoked": true}})
}
