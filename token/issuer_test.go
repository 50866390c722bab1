package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/tessera-id/tessera/tenants"
	"github.com/tessera-id/tessera/token"
)

var testTenancy = tenants.Tenancy{
	ID:        "tenancy-1",
	ProjectID: "project-1",
	BranchID:  "main",
}

func newTestIssuer(t *testing.T, now time.Time) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer([]byte("test-master-secret"),
		token.WithNowTime(func() time.Time { return now }),
	)
	require.NoError(t, err)
	return issuer
}

func TestHMACSignerRoundTrip(t *testing.T) {
	signer := token.NewHMACSigner([]byte("signing-secret"))

	signed, err := signer.Sign(jwt.MapClaims{"sub": "user-1"})
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, signer.VerificationKey)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	other := token.NewHMACSigner([]byte("different-secret"))
	_, err = jwt.Parse(signed, other.VerificationKey)
	require.Error(t, err)
}

func TestIssueProducesDistinctOpaqueTokens(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	first, err := issuer.Issue(testTenancy, "user-1", now.Add(time.Hour), false)
	require.NoError(t, err)
	second, err := issuer.Issue(testTenancy, "user-1", now.Add(time.Hour), false)
	require.NoError(t, err)

	require.NotEmpty(t, first.RefreshToken)
	require.NotEmpty(t, first.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Len(t, first.RefreshToken, 64) // 32 bytes hex encoded
}

func TestVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	pair, err := issuer.Issue(testTenancy, "user-1", now.Add(48*time.Hour), true)
	require.NoError(t, err)

	claims, err := issuer.Verify(testTenancy.ID, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, testTenancy.ID, claims.TenancyID)
	require.Equal(t, testTenancy.ProjectID, claims.ProjectID)
	require.True(t, claims.IsImpersonation)
}

func TestVerifyRejectsOtherTenancy(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	pair, err := issuer.Issue(testTenancy, "user-1", now.Add(time.Hour), false)
	require.NoError(t, err)

	_, err = issuer.Verify("tenancy-2", pair.AccessToken)
	require.Error(t, err)
}

func TestAccessTokenExpiryCappedBySession(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, now)

	sessionExpiry := now.Add(10 * time.Minute)
	pair, err := issuer.Issue(testTenancy, "user-1", sessionExpiry, false)
	require.NoError(t, err)

	claims, err := issuer.Verify(testTenancy.ID, pair.AccessToken)
	require.NoError(t, err)
	require.WithinDuration(t, sessionExpiry, claims.ExpiresAt, time.Second)
}
