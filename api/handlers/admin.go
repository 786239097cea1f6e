package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
	templates "github.com/linesmerrill/medtrack-api/templates/html"
)

// Publisher sends an event to every connection on a topic
type Publisher interface {
	Publish(topic, name string, payload interface{}) int
}

// Admin holds the handlers only admins may call
type Admin struct {
	Users  databases.UserDatabase
	Mailer Mailer
	Bus    Publisher
}

// VerifyPharmacyHandler sets a pharmacy's verification flag, emails the
// pharmacy and tells its open connections
func (a Admin) VerifyPharmacyHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.PharmacyVerifyRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid verification request", err)
		return
	}
	verified := req.Verified == nil || *req.Verified

	if err := a.Users.SetVerified(r.Context(), id, verified); err != nil {
		writeError(w, "failed to update pharmacy", err)
		return
	}
	zap.S().Infow("pharmacy verification changed", "pharmacyID", id, "verified", verified)

	a.notify(r, id, verified)

	a.Bus.Publish(realtime.UserTopic(id), models.EventPharmacyVerified, models.PharmacyVerifiedPayload{
		PharmacyID: id,
		Verified:   verified,
	})
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "pharmacy verification updated",
		Data:    models.PharmacyVerifiedPayload{PharmacyID: id, Verified: verified},
	})
}

// notify emails the pharmacy. Failures are logged only.
func (a Admin) notify(r *http.Request, id string, verified bool) {
	if a.Mailer == nil {
		return
	}
	user, err := a.Users.FindByID(r.Context(), id)
	if err != nil {
		zap.S().Warnw("could not load pharmacy for email", "pharmacyID", id, "error", err)
		return
	}
	if user.Details.Email == "" {
		return
	}
	subject, body := templates.PharmacyVerification(user.Details.PharmacyName, verified)
	name := user.Details.PharmacyName
	if name == "" {
		name = user.Details.FirstName + " " + user.Details.LastName
	}
	if err := a.Mailer.Send(user.Details.Email, name, subject, body); err != nil {
		zap.S().Warnw("verification email not sent", "pharmacyID", id, "error", err)
	}
}
