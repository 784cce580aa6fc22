package billing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Jobs runs the periodic billing sweeps across all owners. It implements
// scheduler.BillingJobs. Each record is handled in its own transaction so one
// failure does not block the batch; a failed record is retried next run.
type Jobs struct {
	tx          shared.Transactor
	invoiceRepo billing.InvoiceRepository
	subRepo     billing.SubscriptionRepository
	documents   *DocumentService
	recorder    Recorder
	logger      *zap.Logger
}

// NewJobs creates the billing jobs. recorder may be nil.
func NewJobs(
	tx shared.Transactor,
	invoiceRepo billing.InvoiceRepository,
	subRepo billing.SubscriptionRepository,
	documents *DocumentService,
	recorder Recorder,
	logger *zap.Logger,
) *Jobs {
	return &Jobs{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		subRepo:     subRepo,
		documents:   documents,
		recorder:    recorderOrNop(recorder),
		logger:      logger,
	}
}

// SweepOverdue marks SENT invoices past their due date as OVERDUE
func (j *Jobs) SweepOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	invoices, err := j.invoiceRepo.FindPastDue(ctx, billing.DateOf(now), limit)
	if err != nil {
		return 0, err
	}

	var errs []error
	marked := 0
	for i := range invoices {
		candidate := &invoices[i]
		var changed bool
		err := j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			inv, err := j.invoiceRepo.FindByIDForUpdate(ctx, candidate.OwnerID, candidate.ID)
			if err != nil {
				return err
			}
			if changed = inv.MarkOverdue(now); !changed {
				return nil
			}
			return j.invoiceRepo.Save(ctx, inv)
		})
		if err != nil {
			j.logger.Warn("Failed to mark invoice overdue",
				zap.String("invoice_id", candidate.ID.String()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if changed {
			marked++
			j.recorder.InvoiceTransitioned(billing.InvoiceStatusOverdue.String())
		}
	}
	return marked, errors.Join(errs...)
}

// SendReminders mails OVERDUE invoices not reminded within cooldown
func (j *Jobs) SendReminders(ctx context.Context, now time.Time, cooldown time.Duration, limit int) (int, error) {
	invoices, err := j.invoiceRepo.FindReminderCandidates(ctx, now.Add(-cooldown), limit)
	if err != nil {
		return 0, err
	}

	var errs []error
	sent := 0
	for i := range invoices {
		inv := &invoices[i]
		if !inv.NeedsReminder(now, cooldown) {
			continue
		}
		ok, err := j.documents.remind(ctx, inv, now)
		if err != nil {
			j.logger.Warn("Failed to send payment reminder",
				zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if !ok {
			j.logger.Debug("Reminder skipped, client has no email",
				zap.String("invoice_id", inv.ID.String()))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// ExpireAdvancePayments returns PAID_IN_ADVANCE subscriptions whose prepaid
// window ended to ACTIVE
func (j *Jobs) ExpireAdvancePayments(ctx context.Context, now time.Time, limit int) (int, error) {
	subs, err := j.subRepo.FindExpiredAdvance(ctx, billing.DateOf(now), limit)
	if err != nil {
		return 0, err
	}

	var errs []error
	expired := 0
	for i := range subs {
		candidate := &subs[i]
		var changed bool
		err := j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			sub, err := j.subRepo.FindByIDForUpdate(ctx, candidate.OwnerID, candidate.ID)
			if err != nil {
				return err
			}
			if changed = sub.ExpireAdvance(now); !changed {
				return nil
			}
			return j.subRepo.Save(ctx, sub)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, errors.Join(errs...)
}
