package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"

	"github.com/mailforge/mailsync/interfaces"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
)

// aesResolver encrypts and decrypts mailbox credentials with AES-256-GCM.
// Ciphertext is base64(nonce || sealed) so it fits in a text column.
type aesResolver struct {
	key [32]byte
}

func NewAESResolver(secret string) (interfaces.CredentialResolver, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	return &aesResolver{key: sha256.Sum256([]byte(secret))}, nil
}

func (r *aesResolver) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(r.key[:])
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *aesResolver) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(mailsync_errors.ErrDecryptionFailed, err.Error())
	}

	block, err := aes.NewCipher(r.key[:])
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", mailsync_errors.ErrDecryptionFailed
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Wrap(mailsync_errors.ErrDecryptionFailed, err.Error())
	}

	return string(plaintext), nil
}
