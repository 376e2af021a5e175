package service

import (
	"context"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/mailer"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	rewardEmailSubject = "Your gift for order #%d"
	testEmailSubject   = "Reward email test"
)

// Notifier delivers rendered rewards by email
type Notifier struct {
	presenter *Presenter
	mailer    mailer.Mailer
	logger    *zap.Logger
}

// NewNotifier accepts a nil mailer; sending then fails with ErrNotConfigured.
func NewNotifier(presenter *Presenter, m mailer.Mailer, logger *zap.Logger) *Notifier {
	return &Notifier{presenter: presenter, mailer: m, logger: logger}
}

// SendOrderRewards emails the order's rewards to its customer. It reports
// false without error when the order has nothing to send.
func (n *Notifier) SendOrderRewards(ctx context.Context, order *model.Order) (bool, error) {
	fragments, err := n.presenter.Render(ctx, order, SurfaceEmail)
	if err != nil {
		return false, err
	}
	if len(fragments) == 0 {
		return false, nil
	}
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return false, fmt.Errorf("%w: order %d has no customer email", apperrors.ErrInvalidRequest, order.ID)
	}
	if n.mailer == nil {
		return false, fmt.Errorf("%w: no mail transport", apperrors.ErrNotConfigured)
	}

	subject := fmt.Sprintf(rewardEmailSubject, order.ID)
	if err := n.mailer.SendMail(ctx, order.CustomerEmail, subject, JoinFragments(fragments)); err != nil {
		n.logger.Error("Failed to send reward email", zap.Int64("order_id", order.ID), zap.Error(err))
		return false, err
	}

	n.logger.Info("Reward email sent", zap.Int64("order_id", order.ID), zap.Int("rewards", len(fragments)))
	return true, nil
}

// NotifyOrder loads the order and emails its rewards
func (n *Notifier) NotifyOrder(ctx context.Context, orderID int64) (bool, error) {
	order, err := n.presenter.orders.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	return n.SendOrderRewards(ctx, order)
}

// SendTestEmail sends the template preview to an admin address
func (n *Notifier) SendTestEmail(ctx context.Context, to, tmpl string) error {
	if n.mailer == nil {
		return fmt.Errorf("%w: no mail transport", apperrors.ErrNotConfigured)
	}
	body := n.presenter.RenderPreview(tmpl, SurfaceEmail)
	if err := n.mailer.SendMail(ctx, to, testEmailSubject, body); err != nil {
		n.logger.Error("Failed to send test email", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}
