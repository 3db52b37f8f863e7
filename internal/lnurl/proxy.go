package lnurl

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultProxyEndpoint задает прокси Alby для получения инвойса по lightning-адресу
const DefaultProxyEndpoint = "https://api.getalby.com/lnurl/generate-invoice"

type proxyResponse struct {
	Invoice *struct {
		PR string `json:"pr"`
	} `json:"invoice"`
}

// ProxyRequester получает инвойс одним запросом к прокси платежного сервиса
type ProxyRequester struct {
	client   *resty.Client
	logger   *zap.Logger
	endpoint string
	timeout  time.Duration
}

// NewProxyRequester создает новый ProxyRequester
func NewProxyRequester(client *http.Client, endpoint string, timeout time.Duration, logger *zap.Logger) *ProxyRequester {
	if endpoint == "" {
		endpoint = DefaultProxyEndpoint
	}
	return &ProxyRequester{
		client:   newRestClient(client, logger),
		logger:   logger,
		endpoint: endpoint,
		timeout:  orDefault(timeout),
	}
}

// RequestInvoice передает адрес прокси без разбора и возвращает полученный инвойс
func (p *ProxyRequester) RequestInvoice(ctx context.Context, destination string, amountMsat int64, comment string) (string, error) {
	params := map[string]string{
		"ln":      destination,
		"amount":  strconv.FormatInt(amountMsat, 10),
		"comment": comment,
	}

	var resp proxyResponse
	if err := getJSON(ctx, p.client, p.logger, p.timeout, p.endpoint, params, payerr.ErrProxy, &resp); err != nil {
		return "", err
	}
	if resp.Invoice == nil || resp.Invoice.PR == "" {
		return "", payerr.Protocol("no invoice in proxy response for %s", destination)
	}
	return resp.Invoice.PR, nil
}
