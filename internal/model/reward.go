package model

import (
	"time"
)

// RewardMapping links a local product to the remote product given away
type RewardMapping struct {
	ProductID       int64     `bson:"_id" json:"product_id"`
	RemoteProductID int64     `bson:"remote_product_id" json:"remote_product_id"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

type IssuedRewardStatus string

const (
	IssuedRewardPending IssuedRewardStatus = "pending"
	IssuedRewardIssued  IssuedRewardStatus = "issued"
)

// IssuedReward is keyed by line item id; the key uniqueness is what limits
// every line item to a single reward.
type IssuedReward struct {
	LineItemID      int64              `bson:"_id" json:"line_item_id"`
	OrderID         int64              `bson:"order_id" json:"order_id"`
	ProductID       int64              `bson:"product_id" json:"product_id"`
	RemoteProductID int64              `bson:"remote_product_id" json:"remote_product_id"`
	Status          IssuedRewardStatus `bson:"status" json:"status"`
	Token           string             `bson:"token" json:"-"`
	Code            string             `bson:"code,omitempty" json:"code,omitempty"`
	ClaimURL        string             `bson:"claim_url,omitempty" json:"claim_url,omitempty"`
	ReservedAt      time.Time          `bson:"reserved_at" json:"reserved_at"`
	IssuedAt        *time.Time         `bson:"issued_at,omitempty" json:"issued_at,omitempty"`
}

func (r *IssuedReward) Issued() bool {
	return r.Status == IssuedRewardIssued && r.Code != "" && r.ClaimURL != ""
}

// Reservation is handed out by Reserve and must be presented to Complete or Release.
type Reservation struct {
	LineItemID int64
	Token      string
}

type IssuanceOutcome string

const (
	OutcomeSkipped       IssuanceOutcome = "skipped"
	OutcomeAlreadyIssued IssuanceOutcome = "already_issued"
	OutcomeInProgress    IssuanceOutcome = "in_progress"
	OutcomeIssued        IssuanceOutcome = "issued"
	OutcomeFailed        IssuanceOutcome = "failed"
)

// ItemResult reports what happened to one line item during order processing
type ItemResult struct {
	LineItemID int64           `json:"line_item_id"`
	ProductID  int64           `json:"product_id"`
	Outcome    IssuanceOutcome `json:"outcome"`
	Code       string          `json:"code,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// RemoteProduct is one entry of the receiver's claimable product list
type RemoteProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CatalogSnapshot is the cached copy of the receiver's listing
type CatalogSnapshot struct {
	Products  []RemoteProduct `json:"products"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ByID indexes the snapshot by remote product id
func (s CatalogSnapshot) ByID() map[int64]RemoteProduct {
	m := make(map[int64]RemoteProduct, len(s.Products))
	for _, p := range s.Products {
		m[p.ID] = p
	}
	return m
}
