// Package auth holds the fixed operator accounts, session tokens and the
// capability policy. None of it is a security boundary: the credentials are
// built in.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"earsip/internal/domain"
)

var ErrInvalidCredentials = errors.New("username atau password salah")

// Account is one built-in operator with the plaintext password it accepts.
type Account struct {
	Username string
	Password string
	FullName string
	Role     domain.Role
}

// DefaultAccounts are the two operators of the office.
func DefaultAccounts() []Account {
	return []Account{
		{Username: "admin", Password: "admin123", FullName: "Administrator LPSE", Role: domain.RoleAdministrator},
		{Username: "staf", Password: "staf123", FullName: "Siti Rohana (Staf)", Role: domain.RoleUser},
	}
}

type entry struct {
	user         domain.User
	passwordHash []byte
}

// Directory authenticates operators against bcrypt hashes computed at startup.
type Directory struct {
	entries map[string]entry
	now     func() time.Time
}

func NewDirectory(accounts []Account) (*Directory, error) {
	d := &Directory{entries: make(map[string]entry, len(accounts)), now: time.Now}
	for _, acc := range accounts {
		username := normalizeUsername(acc.Username)
		if username == "" {
			return nil, fmt.Errorf("account username is required")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", username, err)
		}
		d.entries[username] = entry{
			user:         domain.User{Username: username, FullName: acc.FullName, Role: acc.Role},
			passwordHash: hash,
		}
	}
	return d, nil
}

// Authenticate returns the user with LastLogin stamped to now.
func (d *Directory) Authenticate(username, password string) (domain.User, error) {
	e, ok := d.entries[normalizeUsername(username)]
	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(e.passwordHash, []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	user := e.user
	user.LastLogin = d.now().Format("02/01/2006 15:04:05")
	return user, nil
}

// Lookup returns the account without checking a password.
func (d *Directory) Lookup(username string) (domain.User, bool) {
	e, ok := d.entries[normalizeUsername(username)]
	return e.user, ok
}

func normalizeUsername(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}
