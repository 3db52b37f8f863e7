// Package service содержит бизнес-логику: диспетчер пакетов платежей
// и сохранение библиотек пользователей.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/lnurl"
	"github.com/InQaaaaGit/lnboost.git/internal/metrics"
	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PaymentSubmitter отправляет платежи в платежный сервис
type PaymentSubmitter interface {
	PayInvoice(ctx context.Context, invoice, token string) (models.PaymentOutcome, error)
	PayKeysends(ctx context.Context, requests []models.PaymentRequest, token string) ([]models.PaymentOutcome, error)
}

// BoostService определяет интерфейс диспетчера пакетов платежей
type BoostService interface {
	Dispatch(ctx context.Context, requests []models.PaymentRequest, token string) (*models.BatchResult, error)
}

// BoostServiceImpl реализует BoostService
type BoostServiceImpl struct {
	invoices lnurl.InvoiceRequester
	payments PaymentSubmitter
	workers  int
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// BoostOption настраивает BoostServiceImpl
type BoostOption func(*BoostServiceImpl)

// WithWorkers задает число получателей-адресов, обрабатываемых одновременно
func WithWorkers(n int) BoostOption {
	return func(s *BoostServiceImpl) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMetrics подключает метрики
func WithMetrics(m *metrics.Metrics) BoostOption {
	return func(s *BoostServiceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewBoostService создает новый экземпляр диспетчера
func NewBoostService(invoices lnurl.InvoiceRequester, payments PaymentSubmitter, logger *zap.Logger, opts ...BoostOption) *BoostServiceImpl {
	s := &BoostServiceImpl{
		invoices: invoices,
		payments: payments,
		workers:  1,
		metrics:  metrics.NopMetrics(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partition разделяет получателей на lightning-адреса и keysend, сохраняя порядок внутри групп
func Partition(requests []models.PaymentRequest) (addresses, keysends []models.PaymentRequest) {
	for _, r := range requests {
		if r.IsAddress() {
			addresses = append(addresses, r)
		} else {
			keysends = append(keysends, r)
		}
	}
	return addresses, keysends
}

// ValidateBatch проверяет суммы всех получателей до первого внешнего вызова
func ValidateBatch(requests []models.PaymentRequest) error {
	for i, r := range requests {
		if !r.HasValidAmount() {
			return &payerr.DispatchError{
				Phase:       payerr.PhaseValidate,
				Index:       i,
				Destination: r.Destination,
				Err:         fmt.Errorf("%w: %d", payerr.ErrInvalidAmount, r.Amount),
			}
		}
	}
	return nil
}

// addressItem хранит получателя-адрес вместе с его позицией во входном пакете
type addressItem struct {
	pos int
	req models.PaymentRequest
}

func addressItems(requests []models.PaymentRequest) []addressItem {
	var items []addressItem
	for i, r := range requests {
		if r.IsAddress() {
			items = append(items, addressItem{pos: i, req: r})
		}
	}
	return items
}

// Dispatch отправляет все платежи пакета. Первая ошибка прерывает обработку,
// уже отправленные платежи не откатываются, а частичный результат не возвращается.
func (s *BoostServiceImpl) Dispatch(ctx context.Context, requests []models.PaymentRequest, token string) (*models.BatchResult, error) {
	start := time.Now()
	batchID := uuid.New().String()
	logger := s.logger.With(zap.String("batch_id", batchID))

	_, keysends := Partition(requests)
	addresses := addressItems(requests)
	logger.Info("Dispatching batch",
		zap.Int("bolt11", len(addresses)),
		zap.Int("keysends", len(keysends)))
	s.metrics.BatchSize.Observe(float64(len(requests)))

	result, err := s.dispatch(ctx, logger, requests, addresses, keysends, token)
	s.metrics.DispatchTime.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Batches.With("status", "error").Add(1)
		logger.Error("Batch aborted", zap.Error(err))
		return nil, err
	}

	s.metrics.Batches.With("status", "ok").Add(1)
	logger.Info("Batch dispatched", zap.Duration("latency", time.Since(start)))
	return result, nil
}

func (s *BoostServiceImpl) dispatch(ctx context.Context, logger *zap.Logger, requests []models.PaymentRequest, addresses []addressItem, keysends []models.PaymentRequest, token string) (*models.BatchResult, error) {
	if err := ValidateBatch(requests); err != nil {
		s.metrics.Failures.With("phase", string(payerr.PhaseValidate)).Add(1)
		return nil, err
	}

	result := models.NewBatchResult()

	var (
		bolt11 []models.PaymentOutcome
		err    error
	)
	if s.workers > 1 && len(addresses) > 1 {
		bolt11, err = s.payAddressesParallel(ctx, logger, addresses, token)
	} else {
		bolt11, err = s.payAddresses(ctx, logger, addresses, token)
	}
	if err != nil {
		return nil, err
	}
	result.Bolt11 = append(result.Bolt11, bolt11...)

	if len(keysends) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &payerr.DispatchError{Phase: payerr.PhaseKeysend, Err: err}
		}
		outcomes, err := s.payments.PayKeysends(ctx, keysends, token)
		if err != nil {
			s.metrics.Failures.With("phase", string(payerr.PhaseKeysend)).Add(1)
			s.logUpstream(logger, "keysend payment error", err)
			return nil, &payerr.DispatchError{Phase: payerr.PhaseKeysend, Err: err}
		}
		s.metrics.Payments.With("kind", "keysend").Add(float64(len(outcomes)))
		s.metrics.SentSats.With("kind", "keysend").Add(float64(totalSats(keysends)))
		result.Keysends = append(result.Keysends, outcomes...)
	}

	return result, nil
}

// payAddresses обрабатывает получателей-адресов строго последовательно
func (s *BoostServiceImpl) payAddresses(ctx context.Context, logger *zap.Logger, addresses []addressItem, token string) ([]models.PaymentOutcome, error) {
	outcomes := make([]models.PaymentOutcome, 0, len(addresses))
	for _, item := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, canceled(item, err)
		}
		outcome, err := s.payAddress(ctx, logger, item, token)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// payAddressesParallel обрабатывает адреса одновременно, записывая результаты по позициям.
// Ошибка одного получателя отменяет контекст остальных.
func (s *BoostServiceImpl) payAddressesParallel(ctx context.Context, logger *zap.Logger, addresses []addressItem, token string) ([]models.PaymentOutcome, error) {
	outcomes := make([]models.PaymentOutcome, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, item := range addresses {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return canceled(item, err)
			}
			outcome, err := s.payAddress(gctx, logger, item, token)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// canceled описывает получателя, до которого обработка не дошла из-за отмены контекста
func canceled(item addressItem, err error) error {
	return &payerr.DispatchError{Phase: payerr.PhaseResolve, Index: item.pos, Destination: item.req.Destination, Err: err}
}

// payAddress получает инвойс для одного lightning-адреса и оплачивает его
func (s *BoostServiceImpl) payAddress(ctx context.Context, logger *zap.Logger, item addressItem, token string) (models.PaymentOutcome, error) {
	index, r := item.pos, item.req
	invoice, err := s.invoices.RequestInvoice(ctx, r.Destination, r.AmountMsat(), r.Comment())
	if err != nil {
		s.metrics.Failures.With("phase", string(payerr.PhaseResolve)).Add(1)
		s.logUpstream(logger, "invoice request error", err, zap.String("destination", r.Destination))
		return nil, &payerr.DispatchError{Phase: payerr.PhaseResolve, Index: index, Destination: r.Destination, Err: err}
	}

	outcome, err := s.payments.PayInvoice(ctx, invoice, token)
	if err != nil {
		s.metrics.Failures.With("phase", string(payerr.PhasePay)).Add(1)
		s.logUpstream(logger, "bolt11 payment error", err, zap.String("destination", r.Destination))
		return nil, &payerr.DispatchError{Phase: payerr.PhasePay, Index: index, Destination: r.Destination, Err: err}
	}

	s.metrics.Payments.With("kind", "bolt11").Add(1)
	s.metrics.SentSats.With("kind", "bolt11").Add(float64(r.Amount))
	logger.Debug("Bolt11 payment sent",
		zap.Int("index", index),
		zap.String("destination", r.Destination),
		zap.Int64("amount", r.Amount))
	return outcome, nil
}

// logUpstream пишет в лог ошибку вместе с ответом внешнего сервиса, если он был
func (s *BoostServiceImpl) logUpstream(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if status, body, ok := payerr.UpstreamBody(err); ok {
		fields = append(fields, zap.Int("upstream_status", status), zap.String("upstream_body", body))
	}
	logger.Error(msg, fields...)
}

func totalSats(requests []models.PaymentRequest) int64 {
	var total int64
	for _, r := range requests {
		total += r.Amount
	}
	return total
}
