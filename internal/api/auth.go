package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"slices"

	"github.com/AaronLay10/DefusalEngine/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDefuser Role = "defuser"
)

// Auth checks basic-auth credentials against the configured roles.
type Auth struct {
	admin   config.Credentials
	defuser config.Credentials
}

// NewAuth builds an Auth from explicit credentials.
func NewAuth(admin, defuser config.Credentials) *Auth {
	return &Auth{admin: admin, defuser: defuser}
}

// LoadAuth resolves DEFUSAL_ADMIN_USER/PASS and DEFUSAL_DEFUSER_USER/PASS,
// each honouring the *_FILE convention. With no admin pair set,
// authentication is disabled.
func LoadAuth() (*Auth, error) {
	admin, err := config.ResolveCredentials("DEFUSAL_ADMIN")
	if err != nil {
		return nil, fmt.Errorf("resolve admin credentials: %w", err)
	}
	defuser, err := config.ResolveCredentials("DEFUSAL_DEFUSER")
	if err != nil {
		return nil, fmt.Errorf("resolve defuser credentials: %w", err)
	}
	return NewAuth(admin, defuser), nil
}

// Enabled reports whether requests must authenticate.
func (a *Auth) Enabled() bool {
	return a != nil && a.admin.Set()
}

// authenticate returns the caller's role, or "" if the credentials match
// no role.
func (a *Auth) authenticate(r *http.Request) Role {
	if !a.Enabled() {
		return RoleAdmin
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}
	if matches(a.admin, user, pass) {
		return RoleAdmin
	}
	if a.defuser.Set() && matches(a.defuser, user, pass) {
		return RoleDefuser
	}
	return ""
}

func matches(c config.Credentials, user, pass string) bool {
	return secureCompare(user, c.User) && secureCompare(pass, c.Password)
}

// secureCompare performs constant-time string comparison.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Require wraps a handler and admits only the given roles.
func (a *Auth) Require(handler http.HandlerFunc, allowed ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := a.authenticate(r)
		if role == "" {
			w.Header().Set("WWW-Authenticate", `Basic realm="Defusal Engine"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !slices.Contains(allowed, role) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		handler(w, r)
	}
}

// RequirePlayer admits defusers and admins.
func (a *Auth) RequirePlayer(handler http.HandlerFunc) http.HandlerFunc {
	return a.Require(handler, RoleAdmin, RoleDefuser)
}

// RequireAdmin admits admins only.
func (a *Auth) RequireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return a.Require(handler, RoleAdmin)
}
