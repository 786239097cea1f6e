package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/chat"
	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/models"
)

// Chat exposes patient/pharmacy conversations
type Chat struct {
	Manager *chat.Manager
	Users   databases.UserDatabase
}

// pharmacyListing is the public view of a pharmacy account
type pharmacyListing struct {
	ID           string `json:"_id"`
	PharmacyName string `json:"pharmacyName"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Online       bool   `json:"online"`
}

// RequireVerifiedPharmacy stops pharmacy callers an admin has not verified yet.
// Other roles pass through.
func (c Chat) RequireVerifiedPharmacy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := api.IdentityFrom(r.Context())
		if caller.Role != models.RolePharmacy {
			next.ServeHTTP(w, r)
			return
		}
		user, err := c.Users.FindByID(r.Context(), caller.ID)
		if err != nil {
			writeError(w, "failed to load pharmacy", err)
			return
		}
		if !user.IsVerifiedPharmacy() {
			writeError(w, "pharmacy is not verified", fmt.Errorf("pharmacy %s: %w", caller.ID, models.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PharmaciesHandler lists verified pharmacies a patient can talk to
func (c Chat) PharmaciesHandler(w http.ResponseWriter, r *http.Request) {
	users, err := c.Users.FindPharmacies(r.Context(), true)
	if err != nil {
		writeError(w, "failed to get pharmacies", err)
		return
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	online := c.Manager.OnlineStatus(ids)

	listings := make([]pharmacyListing, 0, len(users))
	for _, u := range users {
		listings = append(listings, pharmacyListing{
			ID:           u.ID,
			PharmacyName: u.Details.PharmacyName,
			FirstName:    u.Details.FirstName,
			LastName:     u.Details.LastName,
			Online:       online[u.ID],
		})
	}
	writeJSON(w, http.StatusOK, listings)
}

// ConversationWithPharmacyHandler returns the calling patient's conversation
// with a pharmacy, starting it on first contact
func (c Chat) ConversationWithPharmacyHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	pharmacyID := mux.Vars(r)["pharmacyId"]

	pharmacy, err := c.Users.FindByID(r.Context(), pharmacyID)
	if err != nil {
		writeError(w, "pharmacy not found", err)
		return
	}
	if !pharmacy.IsVerifiedPharmacy() {
		writeError(w, "pharmacy not found", fmt.Errorf("user %s is not a verified pharmacy: %w", pharmacyID, models.ErrNotFound))
		return
	}

	conv, err := c.Manager.GetOrCreate(r.Context(), caller.ID, pharmacy.ID)
	if err != nil {
		writeError(w, "failed to open conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ConversationsHandler lists the caller's conversations, most recent first
func (c Chat) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	convs, err := c.Manager.ListConversations(r.Context(), caller.ID)
	if err != nil {
		writeError(w, "failed to get conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// MessagesHandler returns a page of a conversation's history
func (c Chat) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	q := r.URL.Query()

	// bad values fall back to the first page and the default size
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	result, err := c.Manager.ListMessages(r.Context(), mux.Vars(r)["id"], caller.ID, page, limit)
	if err != nil {
		writeError(w, "failed to get messages", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SendMessageHandler stores and relays a message from the caller
func (c Chat) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())

	var req models.SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid message", err)
		return
	}

	sent, err := c.Manager.SendMessage(r.Context(), mux.Vars(r)["id"], caller.ID, req.Message)
	if err != nil {
		writeError(w, "failed to send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, sent)
}

// MarkReadHandler marks every message addressed to the caller as read
func (c Chat) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	if err := c.Manager.MarkRead(r.Context(), mux.Vars(r)["id"], caller.ID); err != nil {
		writeError(w, "failed to mark messages read", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// OnlineStatusHandler reports which of the requested users are connected
func (c Chat) OnlineStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OnlineStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid status request", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[string]bool{
		"onlineStatus": c.Manager.OnlineStatus(req.UserIDs),
	})
}
