package model

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// FlexibleID accepts a JSON number or a numeric string. Older senders post
// product ids as strings.
type FlexibleID int64

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer id: %q", s)
	}
	*f = FlexibleID(n)
	return nil
}

// GenerateCouponRequest is the body of POST /generate
type GenerateCouponRequest struct {
	RewardProductID FlexibleID `json:"reward_product_id"`
	OrderID         FlexibleID `json:"order_id,omitempty"`
}

// GenerateCouponResponse is the body returned by POST /generate
type GenerateCouponResponse struct {
	Code     string `json:"code"`
	ClaimURL string `json:"claim_url"`
}

// ErrorResponse is the error envelope of both roles
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SetRewardMappingRequest struct {
	RemoteProductID FlexibleID `json:"remote_product_id"`
}

type RemoteCatalogResponse struct {
	Loaded    bool            `json:"loaded"`
	FetchedAt string          `json:"fetched_at,omitempty"`
	Products  []RemoteProduct `json:"products"`
}

type TemplatePreviewRequest struct {
	Template string `json:"template"`
	Surface  string `json:"surface"`
}

type TestEmailRequest struct {
	To       string `json:"to" binding:"required,email"`
	Template string `json:"template"`
}

type RewardMappingResponse struct {
	ProductID         int64      `json:"product_id"`
	RemoteProductID   int64      `json:"remote_product_id"`
	RemoteProductName string     `json:"remote_product_name,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// OrderCompletedResponse reports the per line item outcome of an order event
type OrderCompletedResponse struct {
	OrderID     int64        `json:"order_id"`
	Items       []ItemResult `json:"items"`
	Notified    bool         `json:"notified"`
	NotifyError string       `json:"notify_error,omitempty"`
}
