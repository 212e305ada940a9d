package services_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/services"
)

const testBotToken = "123456:TEST-TOKEN"

func signedInitData(t *testing.T, auth *services.TelegramAuth) string {
	t.Helper()

	values := url.Values{}
	values.Set("user", `{"id":99281932,"first_name":"Juan"}`)
	values.Set("auth_date", "1717000000")
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("hash", auth.Sign(values))
	return values.Encode()
}

func TestVerifyAcceptsValidInitData(t *testing.T) {
	auth := services.NewTelegramAuth(testBotToken)
	assert.True(t, auth.Verify(signedInitData(t, auth)))
}

func TestVerifyRejectsTamperedInitData(t *testing.T) {
	auth := services.NewTelegramAuth(testBotToken)

	values, err := url.ParseQuery(signedInitData(t, auth))
	assert.NoError(t, err)
	values.Set("user", `{"id":1,"first_name":"Mallory"}`)

	assert.False(t, auth.Verify(values.Encode()))
}

func TestVerifyRejectsMissingHash(t *testing.T) {
	auth := services.NewTelegramAuth(testBotToken)
	assert.False(t, auth.Verify("user=foo&auth_date=1717000000"))
}

func TestVerifyRejectsEmptyInitData(t *testing.T) {
	auth := services.NewTelegramAuth(testBotToken)
	assert.False(t, auth.Verify(""))
}

func TestVerifyFailsClosedWithoutBotToken(t *testing.T) {
	signer := services.NewTelegramAuth(testBotToken)
	auth := services.NewTelegramAuth("")

	assert.False(t, auth.Verify(signedInitData(t, signer)))
}

func TestVerifyRejectsWrongBotToken(t *testing.T) {
	signer := services.NewTelegramAuth("999999:OTHER-TOKEN")
	auth := services.NewTelegramAuth(testBotToken)

	assert.False(t, auth.Verify(signedInitData(t, signer)))
}
