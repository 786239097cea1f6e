package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/api/scheduler"
	"github.com/linesmerrill/medtrack-api/chat"
	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/config"
	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
)

const defaultRequestTimeout = 30 * time.Second

// App stores the router, the db connection and the realtime core, so they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Clock     clock.Clock
	Auth      *api.Auth
	Presence  *realtime.Registry
	Bus       *realtime.Bus
	Chat      *chat.Manager
	Scheduler *scheduler.Scheduler
	Mailer    Mailer

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// setup fills in every collaborator the caller did not provide
func (a *App) setup() {
	if a.Clock == nil {
		a.Clock = clock.New()
	}
	if a.Auth == nil {
		a.Auth = api.NewAuth(&a.Config)
	}
	if a.Presence == nil {
		a.Presence = realtime.NewRegistry()
	}
	if a.Bus == nil {
		a.Bus = realtime.NewBus()
	}
	if a.Chat == nil {
		a.Chat = chat.NewManager(databases.NewConversationDatabase(a.dbHelper), databases.NewMessageDatabase(a.dbHelper), a.Bus, a.Presence, a.Clock)
	}
	if a.Scheduler == nil {
		a.Scheduler = scheduler.NewScheduler(&a.Config, databases.NewMedicationDatabase(a.dbHelper), a.Bus, a.Presence, a.Clock)
	}
	if a.Mailer == nil {
		// a nil *SendgridMailer must not end up in the interface
		if m := NewSendgridMailer(&a.Config); m != nil {
			a.Mailer = m
		}
	}
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	a.setup()

	users := databases.NewUserDatabase(a.dbHelper)
	m := Medication{DB: a.Scheduler.MedDB, Reminders: a.Scheduler, Clock: a.Clock}
	c := Chat{Manager: a.Chat, Users: users}
	adm := Admin{Users: users, Mailer: a.Mailer, Bus: a.Bus}
	ws := Realtime{Auth: a.Auth, Presence: a.Presence, Bus: a.Bus, Chat: a.Chat, Reminders: a.Scheduler}

	patient := api.RequireRole(models.RolePatient)
	staff := api.RequireRole(models.RolePharmacy, models.RoleAdmin)
	testers := api.RequireRole(models.RolePatient, models.RoleAdmin)
	admin := api.RequireRole(models.RoleAdmin)

	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// healthchex
	r := api.New()

	// websocket connections are long lived and skip the request timeout
	r.HandleFunc("/ws", ws.WebSocketHandler).Methods(http.MethodGet)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(a.Auth.Middleware, api.TimeoutMiddleware(timeout))

	apiCreate.Handle("/medications", patient(http.HandlerFunc(m.CreateMedicationHandler))).Methods("POST")
	apiCreate.Handle("/medications", patient(http.HandlerFunc(m.ListMedicationsHandler))).Methods("GET")
	apiCreate.Handle("/medications/upcoming", patient(http.HandlerFunc(m.UpcomingRemindersHandler))).Methods("GET")
	apiCreate.Handle("/medications/patient/{patientId}", staff(http.HandlerFunc(m.PatientMedicationsHandler))).Methods("GET")
	apiCreate.HandleFunc("/medications/{id}", m.MedicationByIDHandler).Methods("GET")
	apiCreate.HandleFunc("/medications/{id}", m.UpdateMedicationHandler).Methods("PUT")
	apiCreate.HandleFunc("/medications/{id}", m.DeleteMedicationHandler).Methods("DELETE")
	apiCreate.Handle("/medications/{medicationId}/reminders/{reminderId}", patient(http.HandlerFunc(m.UpdateReminderStatusHandler))).Methods("PATCH")
	apiCreate.Handle("/medications/{medicationId}/test-reminder", testers(http.HandlerFunc(m.TestReminderHandler))).Methods("POST")
	apiCreate.Handle("/medications/{medicationId}/reminders/{reminderId}/test", testers(http.HandlerFunc(m.TestReminderHandler))).Methods("POST")

	chatRoutes := apiCreate.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(c.RequireVerifiedPharmacy)
	chatRoutes.Handle("/pharmacies", patient(http.HandlerFunc(c.PharmaciesHandler))).Methods("GET")
	chatRoutes.Handle("/conversation/pharmacy/{pharmacyId}", patient(http.HandlerFunc(c.ConversationWithPharmacyHandler))).Methods("GET")
	chatRoutes.HandleFunc("/conversations", c.ConversationsHandler).Methods("GET")
	chatRoutes.HandleFunc("/conversation/{id}/messages", c.MessagesHandler).Methods("GET")
	chatRoutes.HandleFunc("/conversation/{id}/message", c.SendMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/conversation/{id}/read", c.MarkReadHandler).Methods("PUT")
	chatRoutes.HandleFunc("/status", c.OnlineStatusHandler).Methods("POST")

	apiCreate.Handle("/admin/pharmacies/{id}/verify", admin(http.HandlerFunc(adm.VerifyPharmacyHandler))).Methods("PUT")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	zap.S().Info("medtrack-api has connected to the database")

	// initialize api router
	a.Router = a.New()
	return a.ensureIndexes(ctx)
}

// ensureIndexes creates the indexes the stores rely on for uniqueness
func (a *App) ensureIndexes(ctx context.Context) error {
	if err := a.Chat.Conversations.EnsureIndexes(ctx); err != nil {
		zap.S().Errorw("failed to ensure database indexes", "error", err)
		return err
	}
	return nil
}

// Start begins the reminder sweep
func (a *App) Start() error {
	return a.Scheduler.Start()
}

// Shutdown stops the sweep and closes the database connection
func (a *App) Shutdown(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}
