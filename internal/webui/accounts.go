// ABOUTME: Registration, login and logout handlers
// ABOUTME: Successful registration or login stores the user's token in a cookie

package webui

import (
	"errors"
	"net/http"

	"github.com/2389/todo-board/internal/auth"
	"github.com/2389/todo-board/internal/render"
	"github.com/2389/todo-board/internal/store"
)

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, name, title, username, message string) {
	h.renderPage(w, status, name, render.FormPage{
		Page:     h.page(r, title),
		Username: username,
		Error:    message,
	})
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, render.PageRegister, registerPageTitle, "", "")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	in, err := parseCredentials(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.renderForm(w, r, http.StatusBadRequest, render.PageRegister, registerPageTitle, in.Username, msgMissingFields)
		return
	case errors.Is(err, store.ErrUsernameExists):
		h.renderForm(w, r, http.StatusConflict, render.PageRegister, registerPageTitle, in.Username, msgUsernameTaken)
		return
	case err != nil:
		h.renderError(w, r, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	auth.SetTokenCookie(w, r, user.Token, h.config.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, render.PageLogin, loginPageTitle, "", "")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := parseCredentials(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	user, err := h.accounts.GetUserByPassword(r.Context(), in.Username, in.Password)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if user == nil {
		h.renderForm(w, r, http.StatusUnauthorized, render.PageLogin, loginPageTitle, in.Username, msgLoginFailed)
		return
	}

	auth.SetTokenCookie(w, r, user.Token, h.config.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
