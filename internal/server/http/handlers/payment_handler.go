package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/server/http/dto"
)

// SignatureHeader carries the provider HMAC of the webhook body.
const SignatureHeader = "X-Signature"

// PaymentHandler serves checkout, webhook and status endpoints.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Initiate handles POST /payments/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req dto.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.facade.InitiatePayment(c.Request.Context(), CurrentActor(c), toCheckoutRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInitiateResponse(result))
}

// Retry handles POST /payments/retry/:order_id. The body is optional; an
// omitted method repeats the previous attempt's method.
func (h *PaymentHandler) Retry(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	var req dto.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	result, err := h.facade.RetryPayment(c.Request.Context(), CurrentActor(c), orderID, toCheckoutRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInitiateResponse(result))
}

// Status handles GET /payments/status/:order_id.
func (h *PaymentHandler) Status(c *gin.Context) {
	orderID, ok := pathID(c, "order_id")
	if !ok {
		return
	}

	view, err := h.facade.PaymentStatus(c.Request.Context(), CurrentActor(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(view))
}

// Webhook handles POST /payments/webhook. The raw body is passed through
// untouched because the signature covers its exact bytes.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.facade.HandleWebhook(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		var stock *domainErrors.InsufficientStockError
		switch {
		case errors.Is(err, domainErrors.ErrInvalidSignature):
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.CodeInvalidSignature})
		case errors.As(err, &stock):
			_ = c.Error(err)
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   dto.CodeInsufficientStock,
				Message: err.Error(),
				Items:   toShortages(stock.Shortages),
			})
		default:
			writeError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, dto.WebhookAck{OK: true, Ignored: result.Ignored})
}
