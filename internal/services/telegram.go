package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// TelegramAuth verifies that a request genuinely originated from the Telegram
// mini-app shell, using the signed initData blob the client forwards with
// every call.
type TelegramAuth struct {
	botToken string
}

func NewTelegramAuth(botToken string) *TelegramAuth {
	return &TelegramAuth{botToken: botToken}
}

// Verify checks the initData signature: the secret is HMAC-SHA256 of the bot
// token keyed by "WebAppData", and the signed payload is the alphabetically
// sorted key=value pairs (hash excluded) joined by newlines. A missing bot
// token rejects everything rather than failing open.
func (a *TelegramAuth) Verify(initData string) bool {
	if initData == "" || a.botToken == "" {
		return false
	}

	params, err := url.ParseQuery(initData)
	if err != nil {
		return false
	}

	suppliedHash := params.Get("hash")
	if suppliedHash == "" {
		return false
	}
	params.Del("hash")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params.Get(k)))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(a.botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(calculated), []byte(suppliedHash))
}

// Sign produces a valid hash for the given payload values. Test helper; the
// server never signs initData in production.
func (a *TelegramAuth) Sign(values url.Values) string {
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, values.Get(k)))
	}

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(a.botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
