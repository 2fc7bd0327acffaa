package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
)

func TestAESResolver_RoundTrip(t *testing.T) {
	resolver, err := NewAESResolver("test-secret")
	require.NoError(t, err)

	ciphertext, err := resolver.Encrypt("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", ciphertext)

	plaintext, err := resolver.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}

func TestAESResolver_UniqueCiphertexts(t *testing.T) {
	resolver, err := NewAESResolver("test-secret")
	require.NoError(t, err)

	first, err := resolver.Encrypt("hunter2")
	require.NoError(t, err)
	second, err := resolver.Encrypt("hunter2")
	require.NoError(t, err)

	// Random nonce per encryption
	assert.NotEqual(t, first, second)
}

func TestAESResolver_WrongSecret(t *testing.T) {
	encryptor, err := NewAESResolver("secret-one")
	require.NoError(t, err)
	decryptor, err := NewAESResolver("secret-two")
	require.NoError(t, err)

	ciphertext, err := encryptor.Encrypt("hunter2")
	require.NoError(t, err)

	_, err = decryptor.Decrypt(ciphertext)
	assert.ErrorIs(t, err, mailsync_errors.ErrDecryptionFailed)
}

func TestAESResolver_InvalidCiphertext(t *testing.T) {
	resolver, err := NewAESResolver("test-secret")
	require.NoError(t, err)

	_, err = resolver.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, mailsync_errors.ErrDecryptionFailed)

	_, err = resolver.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, mailsync_errors.ErrDecryptionFailed)
}

func TestNewAESResolver_EmptySecret(t *testing.T) {
	_, err := NewAESResolver("")
	assert.Error(t, err)
}
