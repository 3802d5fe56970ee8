package registry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaius/standards-registry/pkg/ledger"
	"github.com/solaius/standards-registry/pkg/semver"
)

func newTestAPI(t *testing.T) (http.Handler, *Controller, string) {
	t.Helper()
	c, repo := newTestController(t)
	return NewRouter(c), c, repo
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-User-Principal", "carol")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestAPI_CreateVersion(t *testing.T) {
	h, c, repo := newTestAPI(t)
	writeArtifact(t, repo, "rule one\n")

	var v ledger.Version
	rec := doJSON(t, h, http.MethodPost, "/versions", map[string]string{
		"file":        testArtifact,
		"description": "initial",
		"bump":        "major",
	}, &v)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1.0.0", v.VersionID)
	assert.Equal(t, "initial", v.Description)

	// The actor header is attributed in history.
	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, "carol", history[0].User)
}

func TestAPI_CreateVersion_Validation(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/versions", map[string]string{"description": "no file"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/versions", map[string]string{"file": "f.md", "bump": "huge"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/versions", map[string]string{"file": "absent.md"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ActivateAndStatus(t *testing.T) {
	h, c, repo := newTestAPI(t)
	mustCreate(t, c, repo, "content\n", semver.BumpMajor)

	var v ledger.Version
	rec := doJSON(t, h, http.MethodPost, "/versions/1.0.0/activate", nil, &v)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, v.Active)

	var status StatusResponse
	rec = doJSON(t, h, http.MethodGet, "/status", nil, &status)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, status.Versions)
	require.NotNil(t, status.Active)
	assert.Equal(t, "1.0.0", status.Active.VersionID)
}

func TestAPI_ActivateDrifted_Conflict(t *testing.T) {
	h, c, repo := newTestAPI(t)
	mustCreate(t, c, repo, "content\n", semver.BumpMajor)
	writeArtifact(t, repo, "tampered\n")

	var errResp map[string]string
	rec := doJSON(t, h, http.MethodPost, "/versions/1.0.0/activate", nil, &errResp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeIntegrityViolation, errResp["code"])
}

func TestAPI_UnknownVersion_NotFound(t *testing.T) {
	h, _, _ := newTestAPI(t)

	var errResp map[string]string
	rec := doJSON(t, h, http.MethodPost, "/versions/9.9.9/activate", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeVersionNotFound, errResp["code"])

	rec = doJSON(t, h, http.MethodGet, "/versions/9.9.9", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RollbackUnrecoverable_Gone(t *testing.T) {
	h, c, repo := newTestAPI(t)
	mustCreate(t, c, repo, "content\n", semver.BumpMajor)
	require.NoError(t, os.Remove(filepath.Join(repo, testArtifact)))
	require.NoError(t, os.Remove(filepath.Join(repo, DefaultBackupDirName, testArtifact+".1.0.0")))

	var errResp map[string]string
	rec := doJSON(t, h, http.MethodPost, "/versions/1.0.0/rollback", nil, &errResp)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, CodeIrrecoverableVersion, errResp["code"])
}

func TestAPI_RollbackLastStable(t *testing.T) {
	h, c, repo := newTestAPI(t)
	mustCreate(t, c, repo, "v1\n", semver.BumpMajor)

	var errResp map[string]string
	rec := doJSON(t, h, http.MethodPost, "/rollback-last-stable", nil, &errResp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeNoStableVersion, errResp["code"])

	rec = doJSON(t, h, http.MethodPost, "/versions/1.0.0/stable", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp RollbackStableResponse
	rec = doJSON(t, h, http.MethodPost, "/rollback-last-stable", nil, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0.0", resp.VersionID)
}

func TestAPI_CompareAndChangelog(t *testing.T) {
	h, c, repo := newTestAPI(t)
	mustCreate(t, c, repo, "a\nb\n", semver.BumpMajor)
	mustCreate(t, c, repo, "a\nc\n", semver.BumpMinor)

	var cmp Comparison
	rec := doJSON(t, h, http.MethodGet, "/compare?from=1.0.0&to=1.1.0", nil, &cmp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cmp.Additions)
	assert.Equal(t, 1, cmp.Deletions)

	rec = doJSON(t, h, http.MethodGet, "/compare?from=1.0.0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var cl ChangelogResponse
	rec = doJSON(t, h, http.MethodGet, "/changelog", nil, &cl)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, cl.Changelog, "# Changelog (1.0.0 to 1.1.0)")

	var errResp map[string]string
	rec = doJSON(t, h, http.MethodGet, "/changelog?from=1.1.0&to=1.0.0", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRange, errResp["code"])
}

func TestAPI_ListAndHistory(t *testing.T) {
	h, c, repo := newTestAPI(t)

	var list VersionListResponse
	rec := doJSON(t, h, http.MethodGet, "/versions", nil, &list)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, list.Versions)

	mustCreate(t, c, repo, "content\n", semver.BumpMajor)

	rec = doJSON(t, h, http.MethodGet, "/versions", nil, &list)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list.Versions, 1)

	var history HistoryResponse
	rec = doJSON(t, h, http.MethodGet, "/history", nil, &history)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, history.History, 1)
	assert.Equal(t, ledger.ActionCreate, history.History[0].Action)
}
