package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventine/ticketing-api/internal/api/handler/v1/request"
	"github.com/eventine/ticketing-api/internal/api/handler/v1/response"
	"github.com/eventine/ticketing-api/internal/domain"
	"github.com/eventine/ticketing-api/internal/service"
)

type PurchaseService interface {
	Checkout(ctx context.Context, buyerID uint, raw service.RawSelection) (service.CheckoutResult, error)
	CheckStatus(ctx context.Context, sessionID string) (service.StatusResult, error)
	Cancel(ctx context.Context, sessionID string, buyerID uint) (service.StatusResult, error)
	GetOrderTickets(ctx context.Context, orderID string, buyerID uint) ([]domain.Ticket, error)
}

type PurchaseHandler struct {
	svc PurchaseService
}

func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		svc: svc,
	}
}

// HandleCreatePurchaseIntent godoc
// @Summary      Start a ticket purchase
// @Description  Validates the selection, reserves inventory and opens a payment session. The client redirects the buyer to the returned URL.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreatePurchaseIntentRequest true "request body"
// @Success      201      {object}  response.CheckoutResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /purchases/intent [post]
// @Security     BearerAuth
func (h *PurchaseHandler) HandleCreatePurchaseIntent(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	var req request.CreatePurchaseIntentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	result, err := h.svc.Checkout(ctx.Request.Context(), userID, req.ToRawSelection())
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", req.EventID))
		case errors.As(err, &validationErr):
			response.RenderErr(ctx, response.ErrUnprocessable(validationErr))
		case errors.Is(err, service.ErrInsufficientInventory):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientInventory))
		default:
			err = fmt.Errorf("v1.HandleCreatePurchaseIntent -> h.svc.Checkout -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}

		return
	}

	ctx.JSON(http.StatusCreated, response.CheckoutResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
	})
}

// HandleGetPurchaseStatus godoc
// @Summary      Reconcile one purchase session
// @Description  Queries the payment gateway and settles the session when its outcome is known. Safe to poll.
// @Tags         purchases
// @Produce      json
// @Param        sessionID  path      string true "checkout session ID"
// @Success      200        {object}  response.PurchaseStatusResponse
// @Failure      401        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /purchases/status/{sessionID} [get]
// @Security     BearerAuth
func (h *PurchaseHandler) HandleGetPurchaseStatus(ctx *gin.Context) {
	sessionID := ctx.Param("sessionID")

	result, err := h.svc.CheckStatus(ctx.Request.Context(), sessionID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetPurchaseStatus -> h.svc.CheckStatus -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, statusToResponse(result))
}

// HandleCancelPurchase godoc
// @Summary      Cancel a pending purchase
// @Description  Releases the reservation held by an unconfirmed session. Already settled sessions keep their outcome.
// @Tags         purchases
// @Produce      json
// @Param        sessionID  path      string true "checkout session ID"
// @Success      200        {object}  response.PurchaseStatusResponse
// @Failure      401        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /purchases/{sessionID}/cancel [post]
// @Security     BearerAuth
func (h *PurchaseHandler) HandleCancelPurchase(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	sessionID := ctx.Param("sessionID")

	result, err := h.svc.Cancel(ctx.Request.Context(), sessionID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotIntentOwner) {
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotIntentOwner))

			return
		}

		err = fmt.Errorf("v1.HandleCancelPurchase -> h.svc.Cancel -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, statusToResponse(result))
}

// HandleGetOrderTickets godoc
// @Summary      Get the tickets of an order
// @Tags         orders
// @Produce      json
// @Param        orderID  path      string true "order ID"
// @Success      200      {array}   domain.Ticket
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /orders/{orderID}/tickets [get]
// @Security     BearerAuth
func (h *PurchaseHandler) HandleGetOrderTickets(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)

		return
	}

	orderID := ctx.Param("orderID")

	tickets, err := h.svc.GetOrderTickets(ctx.Request.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotIntentOwner) {
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotIntentOwner))

			return
		}

		err = fmt.Errorf("v1.HandleGetOrderTickets -> h.svc.GetOrderTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	if len(tickets) == 0 {
		response.RenderErr(ctx, response.ErrNotFound("order", "ID", orderID))

		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

func statusToResponse(result service.StatusResult) response.PurchaseStatusResponse {
	switch result.State {
	case service.StatusIssued:
		return response.PurchaseStatusResponse{
			Issued:  result.Tickets,
			OrderID: result.OrderID,
		}
	case service.StatusFailed:
		return response.PurchaseStatusResponse{
			Failed: result.Reason,
		}
	case service.StatusUnknownSession:
		return response.PurchaseStatusResponse{
			UnknownSession: true,
		}
	default:
		return response.PurchaseStatusResponse{
			Pending: true,
		}
	}
}
