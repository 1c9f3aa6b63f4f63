// ABOUTME: HTTP handlers for folders, their icon configuration, status, and the CI job feed
// ABOUTME: Icon replacement and folder deletion drive the cleanup engine's lifecycle hooks

package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/icon"
	"github.com/2389/folder-icons/internal/status"
	"github.com/2389/folder-icons/internal/store"
)

// CreateFolderRequest is the JSON request body for POST /api/folders.
type CreateFolderRequest struct {
	ID       string       `json:"id,omitempty"`
	ParentID string       `json:"parent_id,omitempty"`
	Name     string       `json:"name"`
	Icon     *icon.Config `json:"icon,omitempty"`
}

// FolderResponse is the JSON representation of a folder.
type FolderResponse struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parent_id,omitempty"`
	Name      string      `json:"name"`
	Icon      icon.Config `json:"icon"`
	IconURL   string      `json:"icon_url,omitempty"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

// StatusResponse is the JSON response for GET /api/folders/{id}/status.
type StatusResponse struct {
	Code      string `json:"code"`
	Color     string `json:"color"`
	Animated  bool   `json:"animated"`
	Result    string `json:"result"`
	Running   bool   `json:"running"`
	Empty     bool   `json:"empty"`
	Buildable bool   `json:"buildable"`
}

// UpsertJobRequest is the JSON request body for PUT /api/folders/{id}/jobs/{name}.
type UpsertJobRequest struct {
	Disabled bool `json:"disabled"`
}

// RecordRunRequest is the JSON request body for POST /api/folders/{id}/jobs/{name}/runs.
type RecordRunRequest struct {
	Number   int    `json:"number"`
	Result   string `json:"result"`
	Building bool   `json:"building"`
}

func toFolderResponse(f *store.Folder) FolderResponse {
	resp := FolderResponse{
		ID:        f.ID,
		ParentID:  f.ParentID,
		Name:      f.Name,
		Icon:      f.Icon,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: f.UpdatedAt.UTC().Format(time.RFC3339),
	}
	switch f.Icon.EffectiveKind() {
	case icon.KindCustom:
		if ref, ok := f.Icon.AssetIdentity(); ok {
			resp.IconURL = iconURL(assetstore.Identity(ref))
		}
	case icon.KindURL:
		resp.IconURL = f.Icon.URL
	}
	return resp
}

// validateIcon checks the configuration and, for custom icons, that the asset exists.
func (s *Server) validateIcon(cfg icon.Config) (icon.Config, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(s.catalog); err != nil {
		return icon.Config{}, err
	}
	if ref, ok := cfg.AssetIdentity(); ok {
		id, _ := assetstore.ParseIdentity(ref)
		if !s.assets.Exists(id) {
			return icon.Config{}, fmt.Errorf("%w: asset %s is not stored", icon.ErrInvalid, id)
		}
		cfg.Asset = id.String()
	}
	return cfg, nil
}

// replaceIcon persists cfg for the folder and releases the asset of the icon it replaced.
func (s *Server) replaceIcon(r *http.Request, folderID string, cfg icon.Config) error {
	previous, err := s.store.UpdateFolderIcon(r.Context(), folderID, cfg)
	if err != nil {
		return fmt.Errorf("folder %q: %w", folderID, err)
	}
	// Best-effort: a failed release is logged and left for the next sweep.
	s.cleanup.OnEntityReplaced(r.Context(), folderID, previous)
	return nil
}

// handleCreateFolder handles POST /api/folders.
func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	folder := &store.Folder{ID: req.ID, ParentID: req.ParentID, Name: req.Name}
	if req.Icon != nil {
		cfg, err := s.validateIcon(*req.Icon)
		if err != nil {
			s.sendError(w, r, err)
			return
		}
		folder.Icon = cfg
	}

	if err := s.store.CreateFolder(r.Context(), folder); err != nil {
		s.sendError(w, r, err)
		return
	}

	s.logger.Info("folder created", "id", folder.ID, "name", folder.Name)
	writeJSON(w, http.StatusCreated, toFolderResponse(folder))
}

// handleListFolders handles GET /api/folders.
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.ListFolders(r.Context())
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	resp := make([]FolderResponse, 0, len(folders))
	for _, f := range folders {
		resp = append(resp, toFolderResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": resp})
}

// handleGetFolder handles GET /api/folders/{id}.
func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	folder, err := s.store.GetFolder(r.Context(), id)
	if err != nil {
		s.sendError(w, r, fmt.Errorf("folder %q: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, toFolderResponse(folder))
}

// handleSetIcon handles PUT /api/folders/{id}/icon.
func (s *Server) handleSetIcon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req icon.Config
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	cfg, err := s.validateIcon(req)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	if err := s.replaceIcon(r, id, cfg); err != nil {
		s.sendError(w, r, err)
		return
	}

	folder, err := s.store.GetFolder(r.Context(), id)
	if err != nil {
		s.sendError(w, r, fmt.Errorf("folder %q: %w", id, err))
		return
	}
	s.logger.Info("folder icon updated", "id", id, "kind", cfg.EffectiveKind())
	writeJSON(w, http.StatusOK, toFolderResponse(folder))
}

// handleDeleteFolder handles DELETE /api/folders/{id}.
// The deletion hook runs for every removed folder, descendants included.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.store.DeleteFolder(r.Context(), id)
	if err != nil {
		s.sendError(w, r, fmt.Errorf("folder %q: %w", id, err))
		return
	}

	// Best-effort: the folders are already gone, so asset release failures
	// are only logged.
	ids := make([]string, 0, len(removed))
	for _, f := range removed {
		s.cleanup.OnEntityDeleted(r.Context(), f)
		ids = append(ids, f.ID)
	}

	s.logger.Info("folder deleted", "id", id, "removed", len(removed))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ids})
}

// handleStatus handles GET /api/folders/{id}/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	folder, err := s.store.GetFolder(r.Context(), id)
	if err != nil {
		s.sendError(w, r, fmt.Errorf("folder %q: %w", id, err))
		return
	}

	jobs, err := s.store.StatusJobs(r.Context(), id)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	if folder.Icon.EffectiveKind() == icon.KindStatus {
		jobs = status.FilterJobs(jobs, folder.Icon.Jobs)
	}

	agg := status.Compute(jobs)
	writeJSON(w, http.StatusOK, StatusResponse{
		Code:      agg.Code(),
		Color:     string(agg.Color()),
		Animated:  agg.Animated(),
		Result:    agg.Combined.String(),
		Running:   agg.Running,
		Empty:     agg.Empty,
		Buildable: agg.Buildable,
	})
}

// handleUpsertJob handles PUT /api/folders/{id}/jobs/{name}.
func (s *Server) handleUpsertJob(w http.ResponseWriter, r *http.Request) {
	folderID, name := r.PathValue("id"), r.PathValue("name")

	var req UpsertJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}

	job := &store.Job{FolderID: folderID, Name: name, Disabled: req.Disabled}
	if err := s.store.UpsertJob(r.Context(), job); err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        job.ID,
		"folder_id": job.FolderID,
		"name":      job.Name,
		"disabled":  job.Disabled,
	})
}

// handleRecordRun handles POST /api/folders/{id}/jobs/{name}/runs.
func (s *Server) handleRecordRun(w http.ResponseWriter, r *http.Request) {
	folderID, name := r.PathValue("id"), r.PathValue("name")

	var req RecordRunRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, r, err)
		return
	}
	if req.Number <= 0 {
		sendJSONError(w, http.StatusBadRequest, "number must be positive")
		return
	}
	result, err := status.ParseResult(req.Result)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.GetJobByName(r.Context(), folderID, name)
	if err != nil {
		s.sendError(w, r, fmt.Errorf("job %q in folder %q: %w", name, folderID, err))
		return
	}

	run := &store.Run{JobID: job.ID, Number: req.Number, Result: result, Building: req.Building}
	if err := s.store.RecordRun(r.Context(), run); err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"job":      name,
		"number":   run.Number,
		"result":   run.Result.String(),
		"building": run.Building,
	})
}
