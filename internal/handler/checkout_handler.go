package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkoutのHTTP。ゲストも注文できる。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type AddressRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type CheckoutRequest struct {
	Email            string `json:"email"`
	ShippingMethodID int64  `json:"shipping_method_id"`
	PaymentMethodID  int64  `json:"payment_method_id"`

	ShippingAddress       *AddressRequest `json:"shipping_address,omitempty"`
	ShippingAddressID     *int64          `json:"shipping_address_id,omitempty"`
	BillingAddress        *AddressRequest `json:"billing_address,omitempty"`
	BillingAddressID      *int64          `json:"billing_address_id,omitempty"`
	BillingSameAsShipping bool            `json:"billing_same_as_shipping"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.POST("/validate", h.validate)
	g.POST("/totals", h.totals)
	g.POST("/order", h.createOrder)
}

func (h *CheckoutHandler) bindInput(c echo.Context) (usecase.CheckoutInput, error) {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return usecase.CheckoutInput{}, err
	}

	userID, _ := getUserIDFromContext(c)

	in := usecase.CheckoutInput{
		SessionID:             sessionIDOf(c),
		UserID:                userID,
		Email:                 req.Email,
		ShippingMethodID:      req.ShippingMethodID,
		PaymentMethodID:       req.PaymentMethodID,
		ShippingAddressID:     req.ShippingAddressID,
		BillingAddressID:      req.BillingAddressID,
		BillingSameAsShipping: req.BillingSameAsShipping,
	}
	if req.ShippingAddress != nil {
		a := usecase.AddressInput(*req.ShippingAddress)
		in.ShippingAddress = &a
	}
	if req.BillingAddress != nil {
		a := usecase.AddressInput(*req.BillingAddress)
		in.BillingAddress = &a
	}
	return in, nil
}

func (h *CheckoutHandler) validate(c echo.Context) error {
	in, err := h.bindInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ValidateCheckout(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) totals(c echo.Context) error {
	in, err := h.bindInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CalculateOrderTotals(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) createOrder(c echo.Context) error {
	in, err := h.bindInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateOrderFromCart(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}
