// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
	"github.com/cadenza-music/cadenza/internal/platform/ctxutil"
)

// # Authorization Decisions

// Action is the gateway's verdict for one request.
type Action int

const (
	// ActionAllow lets the request proceed to its handler.
	ActionAllow Action = iota

	// ActionRedirectToLogin sends an anonymous visitor to the sign-in page,
	// carrying the originally requested path so sign-in can return there.
	ActionRedirectToLogin

	// ActionRedirectToRoleHome sends an authenticated but under-privileged
	// principal to the landing page of their own role.
	ActionRedirectToRoleHome
)

// String returns the lowercase name of the action, for logs and tests.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionRedirectToLogin:
		return "redirect_to_login"
	case ActionRedirectToRoleHome:
		return "redirect_to_role_home"
	default:
		return "unknown"
	}
}

// Decision is the complete outcome of authorizing one request. Location is
// set for the two redirect actions; ReturnPath is set only for the login
// redirect and echoes the path the visitor originally asked for.
type Decision struct {
	Action     Action
	ReturnPath string
	Location   string
}

func allow() Decision {
	return Decision{Action: ActionAllow}
}

func redirectToLogin(returnPath string) Decision {
	return Decision{
		Action:     ActionRedirectToLogin,
		ReturnPath: returnPath,
		Location:   identity.PathLogin + "?redirect=" + url.QueryEscape(returnPath),
	}
}

func redirectToRoleHome(role identity.Role) Decision {
	return Decision{
		Action:   ActionRedirectToRoleHome,
		Location: identity.DestinationFor(role, ""),
	}
}

// # The Gateway

// Gateway authorizes every inbound request against the route table. It is
// safe for concurrent use.
type Gateway struct {
	resolver *identity.Resolver
	log      *slog.Logger
}

// New builds a Gateway on top of the given session resolver.
func New(resolver *identity.Resolver, log *slog.Logger) *Gateway {
	return &Gateway{
		resolver: resolver,
		log:      log.With(slog.String("component", "gateway")),
	}
}

/*
Authorize decides whether the request identified by the session token may
reach the given path.

The decision procedure is total: every (token, path) pair yields exactly one
Decision, and a failure anywhere in resolution degrades to the anonymous
outcome rather than an error.

 1. Resolve the principal from the token. Resolution never fails hard; an
    expired or invalid session simply yields an anonymous principal.
 2. Classify the path. Unknown paths are protected.
 3. Public and auth-only paths allow anyone through.
 4. Protected paths require any principal; anonymous visitors are sent to
    sign-in with the requested path preserved.
 5. Role-restricted paths additionally look up the principal's role. The
    role lookup happens here and only here, so public traffic never pays
    for it. An insufficient role redirects to that role's own home, never
    to an error page.

Returns the decision, the resolved principal (nil when anonymous, with Role
populated only for role-restricted paths), and a session rotation when the
provider refreshed the token during resolution.
*/
func (g *Gateway) Authorize(ctx context.Context, token, path string) (Decision, *identity.Principal, *identity.Rotation) {
	principal, rotation := g.resolver.Resolve(ctx, token)
	class := Classify(path)

	switch class.Kind {
	case RoutePublic, RouteAuthOnly:
		return allow(), principal, rotation

	case RouteProtected:
		if principal == nil {
			return redirectToLogin(path), nil, rotation
		}
		return allow(), principal, rotation

	case RouteRoleRestricted:
		if principal == nil {
			return redirectToLogin(path), nil, rotation
		}

		principal.Role = g.resolver.RoleFor(ctx, principal.IdentityID)
		if !class.Allows(principal.Role) {
			g.log.InfoContext(ctx, "role denied",
				slog.String("path", path),
				slog.String("role", string(principal.Role)),
			)
			return redirectToRoleHome(principal.Role), principal, rotation
		}
		return allow(), principal, rotation

	default:
		// Unreachable with the current table, but an unknown kind must
		// still fail closed.
		if principal == nil {
			return redirectToLogin(path), nil, rotation
		}
		return allow(), principal, rotation
	}
}

// # HTTP Middleware

/*
Middleware adapts the gateway into net/http middleware.

It reads the session cookie, authorizes the request path, rewrites the cookie
whenever the provider rotated the session, and either injects the resolved
principal into the request context or answers with a 302 to the decision's
location.
*/
func (g *Gateway) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)

			decision, principal, rotation := g.Authorize(r.Context(), token, r.URL.Path)

			if rotation != nil {
				WriteSessionCookie(w, rotation.Token, rotation.ExpiresAt)
			}

			if decision.Action != ActionAllow {
				http.Redirect(w, r, decision.Location, http.StatusFound)
				return
			}

			ctx := ctxutil.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly and SameSite=Lax so page navigation carries it but scripts and
// cross-site POSTs do not.
func WriteSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
