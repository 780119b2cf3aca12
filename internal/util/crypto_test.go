package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrips(t *testing.T) {
	key := []byte("a passphrase, any length works")
	pk := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	payload, err := Encrypt(key, pk)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)

	got, err := Decrypt(key, payload)
	require.NoError(t, err)
	assert.Equal(t, pk, got)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	payload, err := Encrypt([]byte("correct key"), "deadbeef")
	require.NoError(t, err)

	_, err = Decrypt([]byte("wrong key"), payload)
	assert.Error(t, err)
}

func TestDecrypt_MalformedPayload(t *testing.T) {
	_, err := Decrypt([]byte("any key"), "not-a-valid-payload")
	assert.Error(t, err)
}
