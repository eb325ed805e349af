package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// UpdateStatusRequest is the admin override body.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.By(func(v interface{}) error {
			if s, ok := v.(OrderStatus); !ok || !s.IsValid() {
				return validation.NewError("validation_order_status", "unknown order status")
			}
			return nil
		})),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (r *CancelOrderRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 500)),
	)
}

type OrderDetailResponse struct {
	Order   *Order          `json:"order"`
	History []StatusHistory `json:"history"`
}
