package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// CurrentActor extracts the caller identity resolved by middleware.Identity.
func CurrentActor(c *gin.Context) model.Actor {
	val, ok := c.Get(middleware.ActorContextKey)
	if !ok {
		return model.Actor{}
	}
	actor, _ := val.(model.Actor)
	return actor
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.CodeValidation, Message: "invalid " + name})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: dto.CodePayloadTooLarge, Message: err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.CodeValidation, Message: err.Error()})
}

var validationErrors = []error{
	domainErrors.ErrInvalidAmount,
	domainErrors.ErrUnknownMethod,
	domainErrors.ErrInvalidPhone,
	domainErrors.ErrCarrierMismatch,
	domainErrors.ErrMissingCardToken,
	domainErrors.ErrInvalidQuantity,
	domainErrors.ErrInvalidCoupon,
	domainErrors.ErrUnsupportedCurrency,
	domainErrors.ErrProductUnavailable,
	domainErrors.ErrMalformedPayload,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps domain errors onto status codes and error bodies.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		mismatch *domainErrors.AmountMismatchError
		limit    *domainErrors.MethodLimitError
		stock    *domainErrors.InsufficientStockError
		gateway  *domainErrors.GatewayError
	)
	switch {
	case errors.As(err, &mismatch):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:        dto.CodeAmountMismatch,
			Message:      err.Error(),
			ClientAmount: &mismatch.Client,
			ServerAmount: &mismatch.Server,
		})
	case errors.As(err, &limit):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:       dto.CodeMethodLimit,
			Message:     err.Error(),
			Limit:       &limit.Limit,
			Suggestions: limit.Suggestions,
		})
	case errors.As(err, &stock):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   dto.CodeInsufficientStock,
			Message: err.Error(),
			Items:   toShortages(stock.Shortages),
		})
	case errors.As(err, &gateway):
		code := dto.CodeGatewayUnavailable
		if errors.Is(err, domainErrors.ErrGatewayRejected) {
			code = dto.CodeGatewayError
		}
		message := gateway.Message
		if message == "" {
			message = gateway.Err.Error()
		}
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: code, Message: message, OrderID: gateway.OrderID})
	case errors.Is(err, domainErrors.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: dto.CodeGatewayUnavailable, Message: err.Error()})
	case errors.Is(err, domainErrors.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.CodeEmptyCart, Message: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: dto.CodeNotFound})
	case errors.Is(err, domainErrors.ErrPaymentOutstanding),
		errors.Is(err, domainErrors.ErrOrderNotPayable),
		errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: dto.CodeConflict, Message: err.Error()})
	case errors.Is(err, domainErrors.ErrUnidentified):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: dto.CodeUnauthorized, Message: err.Error()})
	case isValidation(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.CodeValidation, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.CodeInternal})
	}
}
