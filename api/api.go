package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// New creates the base mux router with request logging and the health route
func New() *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
