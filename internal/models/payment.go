// Package models содержит структуры данных, которыми обмениваются слои сервиса.
package models

import (
	"encoding/json"
	"math"
	"strings"
)

const (
	// CommentRecordType задает TLV-тип записи с комментарием к платежу
	CommentRecordType int64 = 7629169
	// MaxAmount наибольшая сумма в сатоши, которая переводится в миллисатоши без переполнения
	MaxAmount int64 = math.MaxInt64 / 1000
)

// PaymentRequest представляет одного получателя в пакете платежей
type PaymentRequest struct {
	Destination   string           `json:"destination"`
	Amount        int64            `json:"amount"`
	CustomRecords map[int64]string `json:"customRecords,omitempty"`
}

// IsAddress сообщает, является ли получатель lightning-адресом (user@host)
func (r PaymentRequest) IsAddress() bool {
	return strings.Contains(r.Destination, "@")
}

// HasValidAmount сообщает, лежит ли сумма в диапазоне 1..MaxAmount
func (r PaymentRequest) HasValidAmount() bool {
	return r.Amount > 0 && r.Amount <= MaxAmount
}

// AmountMsat возвращает сумму в миллисатоши
func (r PaymentRequest) AmountMsat() int64 {
	return r.Amount * 1000
}

// Comment возвращает комментарий из TLV-записи 7629169 или пустую строку
func (r PaymentRequest) Comment() string {
	return r.CustomRecords[CommentRecordType]
}

// PaymentOutcome хранит ответ платежного сервиса в неизменном виде
type PaymentOutcome = json.RawMessage

// BatchResult представляет итог обработки пакета платежей
type BatchResult struct {
	Bolt11   []PaymentOutcome `json:"bolt11"`
	Keysends []PaymentOutcome `json:"keysends"`
}

// NewBatchResult создает пустой результат, который сериализуется в пустые массивы
func NewBatchResult() *BatchResult {
	return &BatchResult{
		Bolt11:   []PaymentOutcome{},
		Keysends: []PaymentOutcome{},
	}
}
