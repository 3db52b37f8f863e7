package models

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// AlbyClaims представляет собой данные, хранящиеся в JWT токене сессии Alby
type AlbyClaims struct {
	AccessToken string `json:"access_token"`
	jwt.RegisteredClaims
}

// Library представляет сохраненную библиотеку пользователя
type Library struct {
	LightningAddress string          `json:"lightning_address"`
	Library          json.RawMessage `json:"library"`
}

// SaveLibraryRequest представляет тело запроса на сохранение библиотеки
type SaveLibraryRequest struct {
	Library json.RawMessage `json:"library"`
}
