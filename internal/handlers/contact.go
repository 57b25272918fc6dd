package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codewithrodrick/portfolio-backend/internal/middleware"
	"github.com/codewithrodrick/portfolio-backend/internal/models"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
	"github.com/codewithrodrick/portfolio-backend/internal/telemetry"
	"github.com/codewithrodrick/portfolio-backend/pkg/clientip"
)

const msgSendFailed = "Failed to send email. Please try again later."

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmitContact emails a contact form submission to the profile's contact
// address with the submitter as Reply-To.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contactRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" || req.Message == "" {
		telemetry.ContactMessagesTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	replyTo, err := services.SanitizeEmailAddress(req.Email)
	if err != nil {
		telemetry.ContactMessagesTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Please provide a valid email address")
		return
	}

	to := h.opts.ContactFallbackEmail
	profile, err := h.content.GetProfile(ctx)
	if err != nil {
		h.logger.Warn("could not load profile for contact address, using fallback", "error", err)
	} else if profile.ContactEmail != "" {
		to = profile.ContactEmail
	}

	sendErr := errors.New("mailer is not configured")
	if h.mailer != nil {
		sendErr = h.mailer.Send(ctx, services.Email{
			To:       to,
			Subject:  "Portfolio Contact: " + req.Name,
			HTMLBody: contactEmailBody(req),
			ReplyTo:  replyTo,
		})
	}

	h.archiveContact(r, req, sendErr == nil)

	if sendErr != nil {
		telemetry.ContactMessagesTotal.WithLabelValues("failed").Inc()
		h.logger.Error("contact email failed",
			"error", sendErr,
			"request_id", middleware.GetRequestID(ctx),
		)
		writeError(w, http.StatusInternalServerError, msgSendFailed)
		return
	}

	telemetry.ContactMessagesTotal.WithLabelValues("sent").Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ContactMessages lists archived submissions, newest first. Without an
// archive the list is always empty.
func (h *Handler) ContactMessages(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusOK, []models.ContactMessage{})
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	messages, err := h.archive.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// archiveContact is best effort; failures are only logged.
func (h *Handler) archiveContact(r *http.Request, req contactRequest, delivered bool) {
	if h.archive == nil {
		return
	}
	msg := &models.ContactMessage{
		CreatedAt: time.Now().UTC(),
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		IPAddress: clientip.FromRequest(r, h.opts.TrustProxy),
		Delivered: delivered,
	}
	if err := h.archive.Save(r.Context(), msg); err != nil {
		h.logger.Warn("failed to archive contact message", "error", err)
	}
}

func contactEmailBody(req contactRequest) string {
	message := strings.ReplaceAll(html.EscapeString(req.Message), "\n", "<br>")
	return fmt.Sprintf(`<h3>New Contact Form Submission</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>
`, html.EscapeString(req.Name), html.EscapeString(req.Email), message)
}
