package jobs

import "context"

// ExpirePendingPayments fails checkouts the student abandoned.
func (s *Scheduler) ExpirePendingPayments(ctx context.Context) error {
	expired, err := s.payments.ExpireStalePending(ctx, s.opts.PendingPaymentTTL)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.Info("expired stale pending payments", "count", expired)
	}
	return nil
}

func (s *Scheduler) RevokeRefundedAccess(ctx context.Context) error {
	_, err := s.payments.RevokeRefundedAccess(ctx)
	return err
}
