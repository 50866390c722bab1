// Package token issues and verifies the opaque credential pair backing a
// session: a long-lived random refresh token and a short-lived signed access
// token. Persistence of the pair is the caller's concern; the issuer only
// guarantees the randomness that makes refresh tokens unique per tenancy.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tessera-id/tessera/tenants"
)

const refreshTokenLength = 32 // bytes of entropy, hex encoded

// Pair is a freshly issued credential pair. Both values are opaque strings
// revealed to the caller exactly once.
type Pair struct {
	RefreshToken string
	AccessToken  string
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID          string
	TenancyID       string
	ProjectID       string
	BranchID        string
	IsImpersonation bool
	ExpiresAt       time.Time
}

type Issuer struct {
	masterSecret      []byte
	issuer            string
	accessTokenExpiry time.Duration
	nowTime           func() time.Time

	signers     map[string]Signer // tenancy ID -> derived signer
	signersLock sync.RWMutex
}

type IssuerOption func(*Issuer)

// WithAccessTokenExpiry sets the lifetime of issued access tokens.
func WithAccessTokenExpiry(expiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = expiry
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithIssuerName sets the iss claim on issued access tokens.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = name
	}
}

func NewIssuer(masterSecret []byte, options ...IssuerOption) (*Issuer, error) {
	if len(masterSecret) == 0 {
		return nil, errors.New("[NewIssuer] master secret is required")
	}
	i := &Issuer{
		masterSecret:      masterSecret,
		issuer:            "tessera",
		accessTokenExpiry: time.Hour,
		nowTime:           time.Now,
		signers:           make(map[string]Signer),
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issue produces a credential pair for the given subject. The refresh token
// is pure entropy; the access token is a signed JWT whose expiry never
// exceeds the session expiry.
func (i *Issuer) Issue(tenancy tenants.Tenancy, userID string, expiresAt time.Time, isImpersonation bool) (*Pair, error) {
	refreshBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] rand.Read")
	}
	refreshToken := hex.EncodeToString(refreshBytes)

	now := i.nowTime()
	accessExpiry := now.Add(i.accessTokenExpiry)
	if accessExpiry.After(expiresAt) {
		accessExpiry = expiresAt
	}

	claims := jwt.MapClaims{
		"iss":    i.issuer,
		"sub":    userID,
		"aud":    tenancy.ProjectID,
		"tenant": tenancy.ID,
		"branch": tenancy.BranchID,
		"iat":    now.Unix(),
		"exp":    accessExpiry.Unix(),
		"jti":    uuid.New().String(),
	}
	if isImpersonation {
		claims["impersonation"] = true
	}

	signer, err := i.signerForTenancy(tenancy.ID)
	if err != nil {
		return nil, err
	}
	accessToken, err := signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] sign access token")
	}

	return &Pair{RefreshToken: refreshToken, AccessToken: accessToken}, nil
}

// Verify parses an access token against the tenancy's derived key and
// checks it was issued for that tenancy.
func (i *Issuer) Verify(tenancyID, rawToken string) (*AccessClaims, error) {
	signer, err := i.signerForTenancy(tenancyID)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(rawToken, signer.VerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.nowTime),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Verify] parse token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("[Issuer.Verify] unexpected claims type")
	}
	if tenant, _ := claims["tenant"].(string); tenant != tenancyID {
		return nil, errors.New("[Issuer.Verify] token issued for a different tenancy")
	}

	out := &AccessClaims{TenancyID: tenancyID}
	out.UserID, _ = claims["sub"].(string)
	out.ProjectID, _ = claims["aud"].(string)
	out.BranchID, _ = claims["branch"].(string)
	out.IsImpersonation, _ = claims["impersonation"].(bool)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func (i *Issuer) signerForTenancy(tenancyID string) (Signer, error) {
	i.signersLock.RLock()
	signer, ok := i.signers[tenancyID]
	i.signersLock.RUnlock()
	if ok {
		return signer, nil
	}

	derived, err := DeriveTenancySigner(i.masterSecret, tenancyID)
	if err != nil {
		return nil, err
	}

	i.signersLock.Lock()
	defer i.signersLock.Unlock()
	if existing, ok := i.signers[tenancyID]; ok {
		return existing, nil
	}
	i.signers[tenancyID] = derived
	return derived, nil
}
