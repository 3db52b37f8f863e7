// Package alby реализует клиент платежного API Alby: оплату инвойсов,
// пакетную отправку keysend платежей и получение lightning-адреса пользователя.
package alby

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/models"
	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL адрес API Alby
	DefaultBaseURL = "https://api.getalby.com"
	// DefaultTimeout используется, если таймаут вызова не задан
	DefaultTimeout = 20 * time.Second
)

// Config хранит настройки клиента Alby
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client выполняет запросы к платежному API от имени пользователя.
// Токен доступа передается в каждый вызов, клиент не хранит состояние между вызовами.
type Client struct {
	rest    *resty.Client
	timeout time.Duration
	logger  *zap.Logger
}

type payInvoiceRequest struct {
	Invoice string `json:"invoice"`
}

type keysendsRequest struct {
	Keysends []models.PaymentRequest `json:"keysends"`
}

type keysendsResponse struct {
	Keysends []models.PaymentOutcome `json:"keysends"`
}

type value4ValueResponse struct {
	LightningAddress string `json:"lightning_address"`
}

// NewClient создает новый клиент Alby
func NewClient(httpClient *http.Client, cfg Config, logger *zap.Logger) *Client {
	var rest *resty.Client
	if httpClient != nil {
		rest = resty.NewWithClient(httpClient)
	} else {
		rest = resty.New()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rest.SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	return &Client{
		rest:    rest,
		timeout: timeout,
		logger:  logger,
	}
}

// PayInvoice оплачивает bolt11 инвойс и возвращает ответ сервиса без изменений
func (c *Client) PayInvoice(ctx context.Context, invoice, token string) (models.PaymentOutcome, error) {
	body, err := c.do(ctx, http.MethodPost, "/payments/bolt11", token, payInvoiceRequest{Invoice: invoice}, payerr.ErrPayment)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, payerr.Protocol("empty bolt11 payment response")
	}
	return models.PaymentOutcome(body), nil
}

// PayKeysends отправляет все keysend платежи одним запросом.
// Результаты возвращаются в порядке, в котором их вернул сервис.
func (c *Client) PayKeysends(ctx context.Context, requests []models.PaymentRequest, token string) ([]models.PaymentOutcome, error) {
	body, err := c.do(ctx, http.MethodPost, "/payments/keysend/multi", token, keysendsRequest{Keysends: requests}, payerr.ErrPayment)
	if err != nil {
		return nil, err
	}

	var resp keysendsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, payerr.Protocol("malformed keysend response: %v", err)
	}
	if resp.Keysends == nil {
		return nil, payerr.Protocol("no keysends in payment response")
	}
	return resp.Keysends, nil
}

// Value4Value возвращает lightning-адрес владельца токена.
// Пустая строка означает, что адрес у пользователя не настроен.
func (c *Client) Value4Value(ctx context.Context, token string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/user/value4value", token, nil, payerr.ErrUserLookup)
	if err != nil {
		return "", err
	}

	var resp value4ValueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", payerr.Protocol("malformed value4value response: %v", err)
	}
	return resp.LightningAddress, nil
}

// do выполняет авторизованный запрос к API и возвращает тело успешного ответа
func (c *Client) do(ctx context.Context, method, path, token string, payload any, kind error) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token)
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("alby request failed", zap.String("path", path), zap.Error(err))
		return nil, payerr.Transport(kind, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		c.logger.Error("alby API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", body))
		return nil, payerr.Status(kind, resp.StatusCode(), body)
	}
	return body, nil
}
