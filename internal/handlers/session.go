package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// startSession rotates the caller's session: any session presented on the
// request is destroyed and a fresh one bound to adminID is issued.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, adminID uuid.UUID) error {
	if c, err := r.Cookie(h.opts.CookieName); err == nil && c.Value != "" {
		if err := h.sessions.Destroy(r.Context(), c.Value); err != nil {
			h.logger.Warn("failed to destroy previous session", "error", err)
		}
	}

	token, err := h.sessions.Create(r.Context(), adminID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL / time.Second),
		Expires:  time.Now().Add(h.opts.SessionTTL),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
