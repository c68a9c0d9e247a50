package orders

type placeOrderRequest struct {
	CartID        string  `json:"cartId" validate:"required"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	Street        string  `json:"street" validate:"required,max=200"`
	City          string  `json:"city" validate:"required,max=100"`
	ZipCode       string  `json:"zipCode" validate:"required,max=20"`
	PhoneNumber   string  `json:"phoneNumber" validate:"required,max=30"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
