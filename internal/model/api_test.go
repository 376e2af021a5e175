package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleID_Unmarshal(t *testing.T) {
	cases := []struct {
		body    string
		want    FlexibleID
		wantErr bool
	}{
		{`{"reward_product_id": 42}`, 42, false},
		{`{"reward_product_id": "42"}`, 42, false},
		{`{"reward_product_id": ""}`, 0, false},
		{`{"reward_product_id": null}`, 0, false},
		{`{}`, 0, false},
		{`{"reward_product_id": "abc"}`, 0, true},
		{`{"reward_product_id": 4.2}`, 0, true},
	}
	for _, tc := range cases {
		var req GenerateCouponRequest
		err := json.Unmarshal([]byte(tc.body), &req)
		if tc.wantErr {
			assert.Error(t, err, tc.body)
			continue
		}
		assert.NoError(t, err, tc.body)
		assert.Equal(t, tc.want, req.RewardProductID, tc.body)
	}
}

func TestCoupon_Status(t *testing.T) {
	c := Coupon{UsageLimit: 1, IsActive: true}
	assert.Equal(t, CouponStatusActive, c.Status())

	c.UsageCount = 1
	assert.Equal(t, CouponStatusUsed, c.Status())

	c = Coupon{UsageLimit: 1}
	assert.Equal(t, CouponStatusInactive, c.Status())
}
