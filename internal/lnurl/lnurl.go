// Package lnurl получает инвойсы для lightning-адресов по протоколу lnurl-pay.
// Resolver выполняет оба шага протокола сам, ProxyRequester делегирует их прокси платежного сервиса.
package lnurl

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultTimeout используется, если таймаут вызова не задан
const DefaultTimeout = 20 * time.Second

// InvoiceRequester получает bolt11 инвойс для получателя
type InvoiceRequester interface {
	RequestInvoice(ctx context.Context, destination string, amountMsat int64, comment string) (string, error)
}

// errorResponse описывает ответ lnurl сервиса об ошибке
type errorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// newRestClient создает REST клиент поверх client без повторных попыток
func newRestClient(client *http.Client, logger *zap.Logger) *resty.Client {
	var rc *resty.Client
	if client != nil {
		rc = resty.NewWithClient(client)
	} else {
		rc = resty.New()
	}
	return rc.
		SetRetryCount(0).
		SetLogger(logger.Sugar())
}

// getJSON выполняет GET запрос с таймаутом и декодирует тело ответа в out.
// Транспортные ошибки и неуспешные статусы возвращаются как ошибки вида kind.
func getJSON(ctx context.Context, client *resty.Client, logger *zap.Logger, timeout time.Duration, rawURL string, params map[string]string, kind error, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(rawURL)
	if err != nil {
		logger.Error("lnurl request failed", zap.Error(err))
		return payerr.Transport(kind, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		logger.Error("lnurl upstream error",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", body))
		return payerr.Status(kind, resp.StatusCode(), body)
	}

	if len(body) == 0 {
		return payerr.Protocol("empty response body")
	}

	var lnErr errorResponse
	if json.Unmarshal(body, &lnErr) == nil && lnErr.Status == "ERROR" {
		logger.Error("lnurl service returned error", zap.String("reason", lnErr.Reason))
		return payerr.Protocol("service error: %s", lnErr.Reason)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return payerr.Protocol("malformed response: %v", err)
	}
	return nil
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}
