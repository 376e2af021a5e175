package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cross-site-rewards/internal/client"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "s3cret"

func doRequest(t *testing.T, h http.Handler, method, path, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret != "" {
		req.Header.Set(client.SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type memCouponRepo struct {
	mu      sync.Mutex
	coupons []*model.Coupon
}

func (r *memCouponRepo) CreateCoupon(_ context.Context, c *model.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return apperrors.ErrCouponAlreadyExists
		}
	}
	c.ID = primitive.NewObjectID()
	r.coupons = append(r.coupons, c)
	return nil
}

func (r *memCouponRepo) ListCouponsByPrefix(_ context.Context, prefix string) ([]*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Coupon
	for _, c := range r.coupons {
		if strings.HasPrefix(c.Code, prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCouponRepo) DeleteCoupon(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.coupons {
		if c.ID.Hex() == id {
			r.coupons = append(r.coupons[:i], r.coupons[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrCouponNotFound
}

func (r *memCouponRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.coupons)
}

type memCatalog []*model.Product

func (c memCatalog) ListPublished(context.Context) ([]*model.Product, error) {
	return c, nil
}

func (c memCatalog) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range c {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrProductNotFound
}

type memOrders map[int64]*model.Order

func (o memOrders) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	if order, ok := o[id]; ok {
		return order, nil
	}
	return nil, apperrors.ErrOrderNotFound
}

type memMappings struct {
	mu sync.Mutex
	m  map[int64]model.RewardMapping
}

func newMemMappings(initial map[int64]int64) *memMappings {
	mm := &memMappings{m: make(map[int64]model.RewardMapping)}
	for k, v := range initial {
		mm.m[k] = model.RewardMapping{ProductID: k, RemoteProductID: v, UpdatedAt: time.Now()}
	}
	return mm
}

func (mm *memMappings) GetMapping(_ context.Context, productID int64) (*model.RewardMapping, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	m, ok := mm.m[productID]
	if !ok {
		return nil, apperrors.ErrMappingNotFound
	}
	return &m, nil
}

func (mm *memMappings) SetMapping(_ context.Context, productID, remoteProductID int64) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.m[productID] = model.RewardMapping{ProductID: productID, RemoteProductID: remoteProductID, UpdatedAt: time.Now()}
	return nil
}

func (mm *memMappings) DeleteMapping(_ context.Context, productID int64) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.m, productID)
	return nil
}

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
	r.records[reward.LineItemID] = &cp
	return res, nil
}

func (r *memRewards) Complete(_ context.Context, res model.Reservation, code, claimURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[res.LineItemID]
	if !ok || rec.Token != res.Token || rec.Status != model.IssuedRewardPending {
		return apperrors.ErrIssuanceInProgress
	}
	rec.Status = model.IssuedRewardIssued
	rec.Code = code
	rec.ClaimURL = claimURL
	return nil
}

func (r *memRewards) Release(_ context.Context, res model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[res.LineItemID]; ok && rec.Token == res.Token && rec.Status == model.IssuedRewardPending {
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

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendMail(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}
