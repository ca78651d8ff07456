package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the timeline API on router. The metrics handler is
// optional.
func SetupRoutes(router *mux.Router, handler *Handler, metrics http.Handler) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	api.HandleFunc("/timeline", handler.GetTimeline).Methods(http.MethodGet)
	api.HandleFunc("/timeline.svg", handler.GetSVG).Methods(http.MethodGet)
	api.HandleFunc("/timeline/window", handler.SetWindow).Methods(http.MethodPut)
	api.HandleFunc("/timeline/refresh", handler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/timeline/conflicts", handler.GetConflicts).Methods(http.MethodGet)
	api.HandleFunc("/timeline/jobs/{id}/tooltip", handler.GetTooltip).Methods(http.MethodGet)

	pointer := api.PathPrefix("/timeline/pointer").Subrouter()
	pointer.HandleFunc("/down", handler.PointerDown).Methods(http.MethodPost)
	pointer.HandleFunc("/move", handler.PointerMove).Methods(http.MethodPost)
	pointer.HandleFunc("/up", handler.PointerUp).Methods(http.MethodPost)
	pointer.HandleFunc("/cancel", handler.PointerCancel).Methods(http.MethodPost)

	api.HandleFunc("/notifications", handler.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}", handler.DismissNotification).Methods(http.MethodDelete)

	api.HandleFunc("/jobs", handler.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{name}", handler.GetJobStatus).Methods(http.MethodGet)

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
}
