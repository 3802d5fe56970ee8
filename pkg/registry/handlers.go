package registry

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solaius/standards-registry/pkg/ledger"
	"github.com/solaius/standards-registry/pkg/semver"
)

// VersionListResponse is the API response for a version listing.
type VersionListResponse struct {
	Versions []ledger.Version `json:"versions"`
}

// HistoryResponse is the API response for the history log.
type HistoryResponse struct {
	History []ledger.HistoryEntry `json:"history"`
}

// StatusResponse summarizes the store for the management console.
type StatusResponse struct {
	Versions int             `json:"versions"`
	Stable   int             `json:"stable"`
	Active   *ledger.Version `json:"active,omitempty"`
}

// ChangelogResponse wraps a rendered changelog.
type ChangelogResponse struct {
	Changelog string `json:"changelog"`
}

// RollbackStableResponse reports which version a stable rollback chose.
type RollbackStableResponse struct {
	VersionID string `json:"versionId"`
}

// listVersionsHandler returns a handler that lists all recorded versions.
// GET /versions
func listVersionsHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versions := c.Versions()
		if versions == nil {
			versions = []ledger.Version{}
		}
		writeJSON(w, http.StatusOK, VersionListResponse{Versions: versions})
	}
}

// getVersionHandler returns a handler that fetches one version by id.
// GET /versions/{id}
func getVersionHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := c.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// createVersionHandler returns a handler that records a new version from
// the live artifact.
// POST /versions
func createVersionHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			File        string `json:"file"`
			Description string `json:"description"`
			Bump        string `json:"bump"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.File == "" {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		bump, err := semver.ParseBump(req.Bump)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		v, err := c.As(extractActor(r)).Create(r.Context(), req.File, req.Description, bump)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

// activateHandler returns a handler that activates a version after
// integrity verification.
// POST /versions/{id}/activate
func activateHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := c.As(extractActor(r)).Activate(r.Context(), id); err != nil {
			writeRegistryError(w, err)
			return
		}
		v, err := c.Get(id)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// rollbackHandler returns a handler that rolls back to a version,
// restoring its content from backup when needed.
// POST /versions/{id}/rollback
func rollbackHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := c.As(extractActor(r)).RollbackTo(r.Context(), id); err != nil {
			writeRegistryError(w, err)
			return
		}
		v, err := c.Get(id)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// rollbackLastStableHandler returns a handler that rolls back to the
// newest stable version.
// POST /rollback-last-stable
func rollbackLastStableHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := c.As(extractActor(r)).RollbackToLastStable(r.Context())
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RollbackStableResponse{VersionID: id})
	}
}

// markStableHandler returns a handler that marks a version stable.
// POST /versions/{id}/stable
func markStableHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := c.As(extractActor(r)).MarkStable(r.Context(), id); err != nil {
			writeRegistryError(w, err)
			return
		}
		v, err := c.Get(id)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// compareHandler returns a handler that diffs two versions.
// GET /compare?from=&to=
func compareHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" || to == "" {
			writeError(w, http.StatusBadRequest, "from and to are required")
			return
		}
		cmp, err := c.Compare(r.Context(), from, to)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cmp)
	}
}

// changelogHandler returns a handler that renders a changelog over an
// optional id range.
// GET /changelog?from=&to=
func changelogHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := c.Changelog(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ChangelogResponse{Changelog: text})
	}
}

// historyHandler returns a handler that lists the history-of-actions log.
// GET /history
func historyHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := c.History()
		if history == nil {
			history = []ledger.HistoryEntry{}
		}
		writeJSON(w, http.StatusOK, HistoryResponse{History: history})
	}
}

// statusHandler returns a handler that summarizes the store.
// GET /status
func statusHandler(c *Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{Versions: len(c.Versions()), Stable: len(c.ledger.StableVersions())}
		if active, ok := c.Active(); ok {
			resp.Active = &active
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// extractActor extracts the acting user from the request headers,
// falling back to "system".
func extractActor(r *http.Request) string {
	if principal := r.Header.Get("X-User-Principal"); principal != "" {
		return principal
	}
	return "system"
}

// statusForCode maps registry error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case CodeVersionNotFound, CodeArtifactMissing, CodeSourceMissing, CodeSnapshotMissing:
		return http.StatusNotFound
	case CodeMalformedVersionID, CodeInvalidRange:
		return http.StatusBadRequest
	case CodeIntegrityViolation, CodeBackupConflict, CodeNoStableVersion:
		return http.StatusConflict
	case CodeIrrecoverableVersion:
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

// writeRegistryError translates a typed registry failure into an HTTP
// response carrying the machine-readable code.
func writeRegistryError(w http.ResponseWriter, err error) {
	code := CodeOf(err)
	writeJSON(w, statusForCode(code), map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
