// Copyright (c) 2026 Cadenza Music. All rights reserved.
// Author: dev@cadenza.app

package signin

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cadenza-music/cadenza/internal/gateway"
	"github.com/cadenza-music/cadenza/internal/identity"
	"github.com/cadenza-music/cadenza/internal/platform/constants"
	"github.com/cadenza-music/cadenza/internal/platform/request"
	"github.com/cadenza-music/cadenza/internal/platform/respond"
	"github.com/cadenza-music/cadenza/internal/platform/validate"
)

// Registrar creates new accounts. Satisfied by the accounts provider.
type Registrar interface {
	Register(ctx context.Context, email, password, displayName string) error
}

// Handler exposes the sign-in state machine over HTTP. The login UI renders
// purely off the returned attempt view and never encodes policy itself.
type Handler struct {
	machine   *Machine
	store     *Store
	provider  identity.Provider
	registrar Registrar
}

// NewHandler builds the sign-in HTTP handler.
func NewHandler(machine *Machine, store *Store, provider identity.Provider, registrar Registrar) *Handler {
	return &Handler{
		machine:   machine,
		store:     store,
		provider:  provider,
		registrar: registrar,
	}
}

// Routes returns the chi router for the authentication surface.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/attempts", h.CreateAttempt)
	router.Route("/attempts/{attemptID}", func(router chi.Router) {
		router.Get("/", h.GetAttempt)
		router.Post("/password", h.SubmitPassword)
		router.Post("/otc/request", h.RequestOTC)
		router.Post("/otc/verify", h.VerifyOTC)
		router.Post("/otc/resend", h.ResendOTC)
		router.Post("/back", h.Back)
		router.Post("/fallback", h.Fallback)
	})
	router.Post("/register", h.Register)
	router.Post("/logout", h.Logout)

	return router
}

type createAttemptRequest struct {
	ReturnPath string `json:"return_path"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTCRequest struct {
	Code string `json:"code"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

/*
CreateAttempt starts a fresh sign-in attempt.

The optional return_path is carried through the whole flow and, on
completion, wins over the role home as the post-login destination.
*/
func (h *Handler) CreateAttempt(writer http.ResponseWriter, req *http.Request) {
	var body createAttemptRequest
	// An empty body is fine; the return path is optional.
	_ = requestutil.DecodeJSON(req, &body)

	attempt := h.store.Create(body.ReturnPath)
	respond.Created(writer, attempt)
}

// GetAttempt returns the current state of an attempt, timers advanced. The
// login form polls this while a cooldown or reset countdown is running.
func (h *Handler) GetAttempt(writer http.ResponseWriter, req *http.Request) {
	attempt, err := h.store.Get(requestutil.Param(req, "attemptID"))
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	respond.OK(writer, attempt)
}

// SubmitPassword runs the password submission transition.
func (h *Handler) SubmitPassword(writer http.ResponseWriter, req *http.Request) {
	h.credentialTransition(writer, req, h.machine.Submit)
}

// RequestOTC runs the request-a-code transition.
func (h *Handler) RequestOTC(writer http.ResponseWriter, req *http.Request) {
	h.credentialTransition(writer, req, h.machine.RequestOTC)
}

// Fallback runs the password-only fallback transition. Credentials may be
// omitted, in which case the ones held on the attempt are reused.
func (h *Handler) Fallback(writer http.ResponseWriter, req *http.Request) {
	var body credentialsRequest
	_ = requestutil.DecodeJSON(req, &body)

	attempt, err := h.store.With(requestutil.Param(req, "attemptID"), func(a *Attempt) error {
		return h.machine.Fallback(req.Context(), a, body.Email, body.Password)
	})
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	h.finish(writer, attempt)
}

/*
VerifyOTC runs the code submission transition.

The 6-or-8-digit format check happens in the machine before any provider
call; a malformed code costs nothing server-side.
*/
func (h *Handler) VerifyOTC(writer http.ResponseWriter, req *http.Request) {
	var body verifyOTCRequest
	if err := requestutil.DecodeJSON(req, &body); err != nil {
		respond.Error(writer, req, err)
		return
	}
	if err := validate.New().Required("code", body.Code).Err(); err != nil {
		respond.Error(writer, req, err)
		return
	}

	attempt, err := h.store.With(requestutil.Param(req, "attemptID"), func(a *Attempt) error {
		return h.machine.SubmitOTC(req.Context(), a, body.Code)
	})
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	h.finish(writer, attempt)
}

// ResendOTC runs the resend transition; a resend inside the cooldown window
// is a silent no-op.
func (h *Handler) ResendOTC(writer http.ResponseWriter, req *http.Request) {
	attempt, err := h.store.With(requestutil.Param(req, "attemptID"), func(a *Attempt) error {
		return h.machine.ResendOTC(req.Context(), a)
	})
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	respond.OK(writer, attempt)
}

// Back abandons the code step and returns the attempt to password collection.
func (h *Handler) Back(writer http.ResponseWriter, req *http.Request) {
	attempt, err := h.store.With(requestutil.Param(req, "attemptID"), func(a *Attempt) error {
		return h.machine.Back(a)
	})
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	respond.OK(writer, attempt)
}

/*
Register creates a new customer account and mails it a signup confirmation
code. The account stays unconfirmed, and password sign-in is refused, until
that code is verified.
*/
func (h *Handler) Register(writer http.ResponseWriter, req *http.Request) {
	var body registerRequest
	if err := requestutil.DecodeJSON(req, &body); err != nil {
		respond.Error(writer, req, err)
		return
	}
	if err := validate.New().
		Required("email", body.Email).
		Email("email", body.Email).
		Required("password", body.Password).
		MinLen("password", body.Password, 8).
		Required("display_name", body.DisplayName).
		Err(); err != nil {
		respond.Error(writer, req, err)
		return
	}

	if err := h.registrar.Register(req.Context(), body.Email, body.Password, body.DisplayName); err != nil {
		respond.Error(writer, req, err)
		return
	}
	respond.Created(writer, map[string]string{"email": body.Email})
}

// Logout revokes the caller's session and expires the session cookie. Safe
// to call anonymously.
func (h *Handler) Logout(writer http.ResponseWriter, req *http.Request) {
	if cookie, err := req.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.provider.SignOut(req.Context(), cookie.Value); err != nil {
			respond.Error(writer, req, err)
			return
		}
	}

	gateway.ClearSessionCookie(writer)
	respond.NoContent(writer)
}

// credentialTransition decodes email+password, validates, and applies the
// given machine transition under the attempt's lock.
func (h *Handler) credentialTransition(
	writer http.ResponseWriter,
	req *http.Request,
	transition func(ctx context.Context, a *Attempt, email, password string) error,
) {
	var body credentialsRequest
	if err := requestutil.DecodeJSON(req, &body); err != nil {
		respond.Error(writer, req, err)
		return
	}
	if err := validate.New().
		Required("email", body.Email).
		Email("email", body.Email).
		Required("password", body.Password).
		Err(); err != nil {
		respond.Error(writer, req, err)
		return
	}

	attempt, err := h.store.With(requestutil.Param(req, "attemptID"), func(a *Attempt) error {
		return transition(req.Context(), a, body.Email, body.Password)
	})
	if err != nil {
		respond.Error(writer, req, err)
		return
	}
	h.finish(writer, attempt)
}

// finish renders an attempt snapshot, writing the session cookie and dropping
// the stored attempt when it just completed.
func (h *Handler) finish(writer http.ResponseWriter, attempt Attempt) {
	if attempt.Stage == StageComplete {
		gateway.WriteSessionCookie(writer, attempt.SessionToken, time.Now().Add(constants.SessionCookieTTL))
		h.store.Delete(attempt.ID)
	}
	respond.OK(writer, attempt)
}
