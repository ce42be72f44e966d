// Package api provides HTTP handlers for the SiteShip API.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/siteship/siteship/internal/shell/orchestrator"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store       store.Store
	deployments *orchestrator.DeploymentService
	domains     *orchestrator.DomainService
	logger      *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, deployments *orchestrator.DeploymentService, domains *orchestrator.DomainService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:       s,
		deployments: deployments,
		domains:     domains,
		logger:      logger.With("component", "api"),
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.handleHealth).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/sites", h.handleListSites).Methods("GET")

	site := v1.PathPrefix("/customers/{customerID}/site").Subrouter()
	site.HandleFunc("", h.handleInitializeSite).Methods("PUT")
	site.HandleFunc("", h.handleGetSite).Methods("GET")
	site.HandleFunc("", h.handleDeleteSite).Methods("DELETE")
	site.HandleFunc("/deployments", h.handleTriggerDeployment).Methods("POST")
	site.HandleFunc("/domain", h.handleConfigureDomain).Methods("PUT")
	site.HandleFunc("/domain", h.handleGetDomain).Methods("GET")

	return r
}

// =============================================================================
// Health
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Site Lifecycle
// =============================================================================

// handleInitializeSite creates the hosting project for a customer.
func (h *Handler) handleInitializeSite(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]

	var input orchestrator.InitializeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.deployments.Initialize(r.Context(), customerID, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"data": record})
}

// handleGetSite returns the reconciled deployment status for a customer.
func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]

	status, err := h.deployments.GetStatus(r.Context(), customerID)
	if err != nil {
		// A platform outage leaves the local view usable; surface it with
		// the staleness made explicit instead of failing the read.
		if status != nil && orchestrator.IsPlatform(err) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"data": status,
				"meta": map[string]string{"platform_status": "unavailable"},
			})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": status})
}

// handleDeleteSite removes the customer's record. The delete_project query
// parameter cascades the remote project deletion.
func (h *Handler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]
	deleteProject := r.URL.Query().Get("delete_project") == "true"

	if err := h.deployments.Delete(r.Context(), customerID, deleteProject); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListSites returns all deployment records, paginated.
func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			opts.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			opts.Offset = offset
		}
	}

	records, err := h.store.ListDeploymentRecords(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": records,
		"meta": map[string]int{"count": len(records)},
	})
}

// =============================================================================
// Deployments
// =============================================================================

// handleTriggerDeployment starts a new deployment for the customer's site.
func (h *Handler) handleTriggerDeployment(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]

	record, err := h.deployments.Trigger(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// 202: the deploy is running remotely and resolves via reconciliation.
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"data": record})
}

// =============================================================================
// Custom Domain
// =============================================================================

type configureDomainRequest struct {
	Hostname string `json:"hostname"`
}

// handleConfigureDomain attaches a custom domain to the customer's site.
func (h *Handler) handleConfigureDomain(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]

	var req configureDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.domains.Configure(r.Context(), customerID, req.Hostname)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": result})
}

// handleGetDomain returns the reconciled custom-domain status.
func (h *Handler) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerID"]

	result, err := h.domains.Reconcile(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": result})
}

// =============================================================================
// Helpers
// =============================================================================

// writeServiceError maps orchestrator errors onto HTTP statuses. Anything
// unclassified is a local persistence failure and stays a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case orchestrator.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case orchestrator.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "No site found for this customer")
	case orchestrator.IsConflict(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case orchestrator.IsPreconditionFailed(err):
		writeJSONError(w, http.StatusPreconditionFailed, err.Error())
	case orchestrator.IsPlatform(err):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{
			{
				"status": fmt.Sprintf("%d", status),
				"title":  http.StatusText(status),
				"detail": message,
			},
		},
	})
}
