package lnurl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/payerr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// addressPartPattern задает допустимые символы для имени и хоста lightning-адреса
var addressPartPattern = regexp.MustCompile(`^[\w\-.]+$`)

// payResponse описывает ответ .well-known/lnurlp
type payResponse struct {
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	Tag         string `json:"tag"`
}

// invoiceResponse описывает ответ callback URL
type invoiceResponse struct {
	PR string `json:"pr"`
}

// ResolverConfig хранит настройки Resolver
type ResolverConfig struct {
	Timeout time.Duration
	// Scheme используется для запроса .well-known, по умолчанию https
	Scheme string
}

// Resolver получает инвойс, выполняя discovery и callback запросы напрямую
type Resolver struct {
	client  *resty.Client
	logger  *zap.Logger
	timeout time.Duration
	scheme  string
}

// NewResolver создает новый Resolver
func NewResolver(client *http.Client, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &Resolver{
		client:  newRestClient(client, logger),
		logger:  logger,
		timeout: orDefault(cfg.Timeout),
		scheme:  scheme,
	}
}

// SplitAddress разбивает lightning-адрес на имя пользователя и хост и проверяет их формат
func SplitAddress(destination string) (string, string, error) {
	username, hostname, ok := strings.Cut(destination, "@")
	if !ok {
		return "", "", fmt.Errorf("%w: missing @ in %q", payerr.ErrInvalidAddress, destination)
	}
	if !addressPartPattern.MatchString(username) || !addressPartPattern.MatchString(hostname) {
		return "", "", fmt.Errorf("%w: %q", payerr.ErrInvalidAddress, destination)
	}
	return username, hostname, nil
}

// RequestInvoice получает инвойс на amountMsat миллисатоши для lightning-адреса destination
func (r *Resolver) RequestInvoice(ctx context.Context, destination string, amountMsat int64, comment string) (string, error) {
	username, hostname, err := SplitAddress(destination)
	if err != nil {
		return "", err
	}

	wellKnown := (&url.URL{
		Scheme: r.scheme,
		Host:   hostname,
		Path:   "/.well-known/lnurlp/" + username,
	}).String()

	var lookup payResponse
	if err := getJSON(ctx, r.client, r.logger, r.timeout, wellKnown, nil, payerr.ErrDiscovery, &lookup); err != nil {
		return "", err
	}
	if lookup.Callback == "" {
		return "", payerr.Protocol("no lnurlp callback url found for %s", destination)
	}

	callback, err := url.Parse(lookup.Callback)
	if err != nil {
		return "", payerr.Protocol("invalid callback url %q: %v", lookup.Callback, err)
	}
	// amount и comment из callback заменяются значениями платежа
	query := callback.Query()
	query.Del("amount")
	query.Del("comment")
	callback.RawQuery = query.Encode()
	params := map[string]string{
		"amount":  strconv.FormatInt(amountMsat, 10),
		"comment": comment,
	}

	var invoice invoiceResponse
	if err := getJSON(ctx, r.client, r.logger, r.timeout, callback.String(), params, payerr.ErrCallback, &invoice); err != nil {
		return "", err
	}
	if invoice.PR == "" {
		return "", payerr.Protocol("no payment request in callback response for %s", destination)
	}

	r.logger.Debug("Invoice resolved",
		zap.String("destination", destination),
		zap.Int64("amount_msat", amountMsat))
	return invoice.PR, nil
}
