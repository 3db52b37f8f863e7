// Package payerr содержит таксономию ошибок разрешения адресов и отправки платежей.
// Все ошибки сравниваются через errors.Is с сентинелами пакета.
package payerr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidAddress возвращается, когда lightning-адрес не проходит проверку формата
	ErrInvalidAddress = errors.New("invalid lightning address")
	// ErrInvalidAmount возвращается для суммы вне диапазона 1..MaxInt64/1000 сатоши
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrDiscovery возвращается при ошибке запроса .well-known/lnurlp
	ErrDiscovery = errors.New("lnurlp discovery failed")
	// ErrProtocol возвращается, когда в ответе нет обязательного поля
	ErrProtocol = errors.New("protocol error")
	// ErrCallback возвращается при ошибке запроса инвойса по callback URL
	ErrCallback = errors.New("lnurlp callback failed")
	// ErrProxy возвращается при ошибке запроса инвойса через прокси
	ErrProxy = errors.New("proxy invoice request failed")
	// ErrPayment возвращается при ошибке отправки платежа
	ErrPayment = errors.New("payment submission failed")
	// ErrUserLookup возвращается при ошибке получения данных пользователя у платежного сервиса
	ErrUserLookup = errors.New("user lookup failed")
	// ErrTimeout возвращается, когда вызов не уложился в таймаут
	ErrTimeout = errors.New("upstream call timed out")
)

// UpstreamError описывает неудачный вызов внешнего сервиса.
// Status и Body заполняются, только если сервис успел ответить.
type UpstreamError struct {
	Kind   error
	Status int
	Body   string
	Err    error
}

// Error возвращает текст ошибки без тела ответа
func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap позволяет errors.Is находить как вид ошибки, так и исходную причину
func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Transport оборачивает транспортную ошибку в ошибку вида kind.
// Истечение дедлайна дополнительно помечается как ErrTimeout.
func Transport(kind, err error) error {
	if isTimeout(err) {
		return &UpstreamError{Kind: kind, Err: errors.Join(ErrTimeout, err)}
	}
	return &UpstreamError{Kind: kind, Err: err}
}

// Status создает ошибку для ответа с неуспешным HTTP статусом
func Status(kind error, status int, body []byte) error {
	return &UpstreamError{Kind: kind, Status: status, Body: string(body)}
}

// Protocol создает ошибку отсутствующего поля ответа
func Protocol(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// UpstreamBody возвращает тело ответа внешнего сервиса, если оно есть в цепочке ошибок
func UpstreamBody(err error) (int, string, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status != 0 {
		return ue.Status, ue.Body, true
	}
	return 0, "", false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Phase обозначает этап обработки пакета, на котором произошла ошибка
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseResolve  Phase = "resolve"
	PhasePay      Phase = "pay_invoice"
	PhaseKeysend  Phase = "pay_keysends"
)

// DispatchError оборачивает первую ошибку, прервавшую обработку пакета.
// Index указывает позицию получателя во входном пакете, для PhaseKeysend не заполняется.
type DispatchError struct {
	Phase       Phase
	Index       int
	Destination string
	Err         error
}

func (e *DispatchError) Error() string {
	if e.Phase == PhaseKeysend {
		return fmt.Sprintf("dispatch %s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("dispatch %s #%d (%s): %v", e.Phase, e.Index, e.Destination, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
