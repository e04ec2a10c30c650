package handlers

import (
	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/usecase"
)

func toCheckoutRequest(req dto.InitiateRequest) usecase.CheckoutRequest {
	out := usecase.CheckoutRequest{
		Method:          req.Method,
		Phone:           req.Phone,
		CardToken:       req.CardToken,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		ShippingMethod:  req.ShippingMethod,
	}
	if req.ShippingAmount != nil {
		out.ShippingAmount = *req.ShippingAmount
	}
	return out
}

func toInitiateResponse(res *usecase.CheckoutResult) dto.InitiateResponse {
	return dto.InitiateResponse{
		OrderID:     res.Order.ID,
		OrderNumber: res.Order.Number,
		Payment: dto.PaymentSummary{
			ID:          res.Payment.ID,
			Reference:   res.Payment.Reference,
			CheckoutURL: res.Payment.CheckoutURL,
			IsDirect:    res.Direct,
			Method:      res.Payment.Method,
			Status:      string(res.Payment.Status),
		},
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:              order.ID,
		Number:          order.Number,
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		ShippingCost:    order.ShippingCost,
		Currency:        order.Currency,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		ShippingMethod:  order.ShippingMethod,
		TrackingNumber:  order.TrackingNumber,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func toStatusResponse(view *usecase.OrderStatusView) dto.StatusResponse {
	resp := dto.StatusResponse{
		Order:    toOrderResponse(view.Order),
		Items:    make([]dto.OrderItemResponse, 0, len(view.Items)),
		Payments: make([]dto.PaymentResponse, 0, len(view.Payments)),
	}
	for _, it := range view.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			ImageURL:  it.ImageURL,
			ColorID:   it.ColorID,
			ColorName: it.ColorName,
			ColorHex:  it.ColorHex,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	for _, p := range view.Payments {
		resp.Payments = append(resp.Payments, dto.PaymentResponse{
			ID:           p.ID,
			Attempt:      p.Attempt,
			Method:       p.Method,
			Amount:       p.Amount,
			Currency:     p.Currency,
			Reference:    p.Reference,
			CheckoutURL:  p.CheckoutURL,
			Status:       string(p.Status),
			PollCount:    p.PollCount,
			LastResponse: p.LastResponse,
			CreatedAt:    p.CreatedAt,
		})
	}
	return resp
}

func toCartResponse(cart *model.Cart) dto.CartResponse {
	resp := dto.CartResponse{
		ID:             cart.ID,
		Status:         string(cart.Status),
		Lines:          make([]dto.CartLineResponse, 0, len(cart.Lines)),
		Subtotal:       cart.Subtotal,
		Discount:       cart.Discount,
		Total:          cart.Total,
		CouponCode:     cart.CouponCode,
		LastActivityAt: cart.LastActivityAt,
	}
	for _, line := range cart.Lines {
		resp.Lines = append(resp.Lines, dto.CartLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			ColorID:   line.ColorID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal(),
		})
	}
	return resp
}

func toShortages(in []domainErrors.StockShortage) []dto.StockShortage {
	out := make([]dto.StockShortage, 0, len(in))
	for _, s := range in {
		out = append(out, dto.StockShortage{
			ProductID: s.ProductID,
			ColorID:   s.ColorID,
			Name:      s.Name,
			Requested: s.Requested,
			Available: s.Available,
		})
	}
	return out
}
