// Package apikeys implements tenancy-scoped API keys. A key record can carry
// up to three key classes (publishable client, secret server, super secret
// admin); full key values are revealed exactly once on creation, after which
// only the last four characters remain visible. Presented keys are looked up
// by digest and validated against expiry and manual revocation.
package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

// Class identifies which key slot of a record a presented value matched.
type Class string

const (
	ClassPublishableClient Class = "publishable_client_key"
	ClassSecretServer      Class = "secret_server_key"
	ClassSuperSecretAdmin  Class = "super_secret_admin_key"
)

const keyValueLength = 32 // bytes of entropy per minted key, hex encoded

// KeyDigest is what remains of a key value after creation: a lookup hash and
// a displayable suffix.
type KeyDigest struct {
	Hash     string
	LastFour string
}

type APIKey struct {
	ID                string
	TenancyID         string
	Description       string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	ManuallyRevokedAt *time.Time

	PublishableClientKey *KeyDigest
	SecretServerKey      *KeyDigest
	SuperSecretAdminKey  *KeyDigest
}

// WhyInvalid reports the reason the key cannot be used, or "" if it can.
func (k *APIKey) WhyInvalid(now time.Time) string {
	if k.ManuallyRevokedAt != nil {
		return "manually-revoked"
	}
	if now.After(k.ExpiresAt) {
		return "expired"
	}
	return ""
}

func (k *APIKey) IsValid(now time.Time) bool {
	return k.WhyInvalid(now) == ""
}

// HashKey computes the lookup digest of a presented key value.
func HashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

var classPrefixes = map[Class]string{
	ClassPublishableClient: "pck",
	ClassSecretServer:      "ssk",
	ClassSuperSecretAdmin:  "sak",
}

// mintKey generates a fresh key value for the class and its stored digest.
func mintKey(class Class) (string, *KeyDigest, error) {
	raw := make([]byte, keyValueLength)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, errors.Wrap(err, "[apikeys.mintKey] rand.Read")
	}
	value := classPrefixes[class] + "_" + hex.EncodeToString(raw)
	return value, &KeyDigest{
		Hash:     HashKey(value),
		LastFour: value[len(value)-4:],
	}, nil
}
