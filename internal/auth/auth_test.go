package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earsip/internal/domain"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory(DefaultAccounts())
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2024, 1, 15, 9, 30, 5, 0, time.UTC) }
	return d
}

func TestAuthenticateDefaultAccounts(t *testing.T) {
	d := newTestDirectory(t)

	admin, err := d.Authenticate("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, admin.Role)
	assert.Equal(t, "Administrator LPSE", admin.FullName)
	assert.Equal(t, "15/01/2024 09:30:05", admin.LastLogin)

	staff, err := d.Authenticate("  STAF ", "staf123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, staff.Role)
	assert.Equal(t, "staf", staff.Username)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.Authenticate("admin", "staf123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Authenticate("ghost", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLookup(t *testing.T) {
	d := newTestDirectory(t)

	user, ok := d.Lookup("Admin")
	require.True(t, ok)
	assert.Empty(t, user.LastLogin)

	_, ok = d.Lookup("nobody")
	assert.False(t, ok)
}

func TestNewDirectoryRequiresUsername(t *testing.T) {
	_, err := NewDirectory([]Account{{Username: " ", Password: "x"}})
	assert.Error(t, err)
}

func TestSessionsRoundTrip(t *testing.T) {
	sessions := NewSessions("secret", time.Hour)
	user := domain.User{Username: "admin", FullName: "Administrator LPSE", Role: domain.RoleAdministrator, LastLogin: "15/01/2024 09:30:05"}

	token, expiresAt, err := sessions.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	got, err := sessions.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestSessionsRejectTamperedOrExpiredTokens(t *testing.T) {
	sessions := NewSessions("secret", time.Hour)
	token, _, err := sessions.Issue(domain.User{Username: "staf", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = NewSessions("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = sessions.Verify("")
	assert.ErrorIs(t, err, ErrInvalidSession)

	sessions.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = sessions.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionsRejectForeignIssuer(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewSessions("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()
	admin := domain.User{Role: domain.RoleAdministrator}
	staff := domain.User{Role: domain.RoleUser}

	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionBackup, ActionRestore} {
		assert.True(t, policy.Allows(admin, action), action)
		assert.False(t, policy.Allows(staff, action), action)
		assert.False(t, policy.Allows(domain.User{}, action), action)
	}
	assert.False(t, Policy{}.Allows(admin, ActionCreate))
}
