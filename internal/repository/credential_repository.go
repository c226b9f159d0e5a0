package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/pnl-tracker/internal/apperrors"
	"github.com/ndewijer/pnl-tracker/internal/model"
)

const credentialKeyPrefix = "credentials:"

// CredentialRepository stores exchange credentials encrypted with fernet.
// Each source's credentials live under their own key.
type CredentialRepository struct {
	store *Store
	key   *fernet.Key
}

// NewCredentialRepository creates a CredentialRepository. encodedKey is a
// base64 fernet key; an empty key yields a repository that refuses to store
// or read credentials.
func NewCredentialRepository(store *Store, encodedKey string) (*CredentialRepository, error) {
	r := &CredentialRepository{store: store}
	if encodedKey == "" {
		return r, nil
	}

	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credential key: %w", err)
	}
	r.key = key
	return r, nil
}

// GenerateKey returns a new base64 encoded fernet key.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return key.Encode(), nil
}

// Save encrypts and stores the credentials of a source.
func (r *CredentialRepository) Save(ctx context.Context, source string, creds model.Credentials) error {
	if r.key == nil {
		return apperrors.ErrMissingCredentialKey
	}

	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	token, err := fernet.EncryptAndSign(plain, r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return saveJSON(ctx, r.store, credentialKeyPrefix+source, string(token))
}

// Load decrypts the credentials of a source.
func (r *CredentialRepository) Load(ctx context.Context, source string) (model.Credentials, error) {
	if r.key == nil {
		return model.Credentials{}, apperrors.ErrMissingCredentialKey
	}

	var token string
	ok, err := loadJSON(ctx, r.store, credentialKeyPrefix+source, &token)
	if err != nil {
		return model.Credentials{}, err
	}
	if !ok {
		return model.Credentials{}, apperrors.ErrSourceNotFound
	}

	// Negative ttl: stored credentials do not expire
	plain := fernet.VerifyAndDecrypt([]byte(token), -1, []*fernet.Key{r.key})
	if plain == nil {
		return model.Credentials{}, fmt.Errorf("failed to decrypt credentials for %s", source)
	}

	var creds model.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return model.Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the stored credentials of a source.
func (r *CredentialRepository) Delete(ctx context.Context, source string) error {
	return r.store.Delete(ctx, credentialKeyPrefix+source)
}
