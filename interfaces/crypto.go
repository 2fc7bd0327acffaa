package interfaces

// CredentialResolver turns a stored, encrypted credential into a plaintext
// one. Invoked once per sync run, before any connection is opened.
type CredentialResolver interface {
	Decrypt(ciphertext string) (string, error)
	Encrypt(plaintext string) (string, error)
}
