package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/campushub/internal/app/models"
	"github.com/yigit/campushub/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "campushub"})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService()
	user := &models.User{ID: 42, Role: models.RoleDeanOfFaculty}

	token, expiresAt, err := svc.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleDeanOfFaculty, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, _, err := svc.IssueToken(&models.User{ID: 1, Role: models.RoleStudent})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	token, _, err := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "campushub"}).
		IssueToken(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = newTestService().ValidateToken("")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = ExtractBearerToken("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)
}
