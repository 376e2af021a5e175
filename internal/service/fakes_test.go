package service

import (
	"context"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memCouponRepo struct {
	mu      sync.Mutex
	coupons []*model.Coupon
	created int
}

func (r *memCouponRepo) CreateCoupon(_ context.Context, c *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return apperrors.ErrCouponAlreadyExists
		}
	}
	r.coupons = append(r.coupons, c)
	r.created++
	return nil
}

func (r *memCouponRepo) ListCouponsByPrefix(_ context.Context, prefix string) ([]*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Coupon
	for i := len(r.coupons) - 1; i >= 0; i-- {
		if strings.HasPrefix(r.coupons[i].Code, prefix) {
			out = append(out, r.coupons[i])
		}
	}
	return out, nil
}

func (r *memCouponRepo) DeleteCoupon(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.coupons {
		if c.Code == id {
			r.coupons = append(r.coupons[:i], r.coupons[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrCouponNotFound
}

type memCatalog struct {
	products []*model.Product
}

func (c *memCatalog) ListPublished(_ context.Context) ([]*model.Product, error) {
	var out []*model.Product
	for _, p := range c.products {
		if p.Status == model.ProductStatusPublish {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *memCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrProductNotFound
}

type memOrders map[int64]*model.Order

func (o memOrders) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	order, ok := o[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

type memMappings map[int64]int64

func (m memMappings) GetMapping(_ context.Context, productID int64) (*model.RewardMapping, error) {
	remote, ok := m[productID]
	if !ok {
		return nil, apperrors.ErrMappingNotFound
	}
	return &model.RewardMapping{ProductID: productID, RemoteProductID: remote}, nil
}

func (m memMappings) SetMapping(_ context.Context, productID, remoteProductID int64) error {
	m[productID] = remoteProductID
	return nil
}

func (m memMappings) DeleteMapping(_ context.Context, productID int64) error {
	delete(m, productID)
	return nil
}

// memRewards mirrors the reservation rules of the MongoDB repository
type memRewards struct {
	mu      sync.Mutex
	records map[int64]*model.IssuedReward
}

func newMemRewards() *memRewards {
	return &memRewards{records: make(map[int64]*model.IssuedReward)}
}

func (r *memRewards) Reserve(_ context.Context, reward *model.IssuedReward) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[reward.LineItemID]; ok {
		if existing.Status == model.IssuedRewardIssued {
			return model.Reservation{}, apperrors.ErrAlreadyIssued
		}
		return model.Reservation{}, apperrors.ErrIssuanceInProgress
	}
	res := model.Reservation{LineItemID: reward.LineItemID, Token: uuid.NewString()}
	cp := *reward
	cp.Status = model.IssuedRewardPending
	cp.Token = res.Token
	cp.ReservedAt = time.Now()
	r.records[reward.LineItemID] = &cp
	return res, nil
}

func (r *memRewards) Complete(_ context.Context, res model.Reservation, code, claimURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[res.LineItemID]
	if !ok || rec.Status != model.IssuedRewardPending || rec.Token != res.Token {
		return fmt.Errorf("reservation lost: %w", apperrors.ErrIssuanceInProgress)
	}
	now := time.Now()
	rec.Status = model.IssuedRewardIssued
	rec.Code = code
	rec.ClaimURL = claimURL
	rec.IssuedAt = &now
	return nil
}

func (r *memRewards) Release(_ context.Context, res model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[res.LineItemID]; ok && rec.Status == model.IssuedRewardPending && rec.Token == res.Token {
		delete(r.records, res.LineItemID)
	}
	return nil
}

func (r *memRewards) ListByOrder(_ context.Context, orderID int64) ([]*model.IssuedReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.IssuedReward
	for _, rec := range r.records {
		if rec.OrderID == orderID && rec.Status == model.IssuedRewardIssued {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRewards) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeIssuer records every generate call. fail maps a remote product id to
// the error (and optional response) returned for it.
type fakeIssuer struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]error
	resp  map[int64]*model.GenerateCouponResponse

	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeIssuer) GenerateCoupon(_ context.Context, rewardProductID, _ int64) (*model.GenerateCouponResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rewardProductID)
	n := len(f.calls)
	f.mu.Unlock()

	if f.gate != nil && n == 1 {
		close(f.entered)
		<-f.gate
	}

	if err, ok := f.fail[rewardProductID]; ok {
		return f.resp[rewardProductID], err
	}
	code := fmt.Sprintf("XSR-TEST%04d", n)
	return &model.GenerateCouponResponse{
		Code:     code,
		ClaimURL: fmt.Sprintf("https://receiver.example/cart/?add-to-cart=%d&coupon_code=%s", rewardProductID, code),
	}, nil
}

func (f *fakeIssuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeQR struct{}

func (fakeQR) ImageURL(data string) string {
	return "https://qr.example/?data=" + data
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendMail(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
