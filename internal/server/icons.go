// ABOUTME: HTTP handlers for icon assets: upload, listing, info, serving, sweep, usage
// ABOUTME: Uploads are rate limited and body-capped before they reach the upload gate

package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/icon"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// IconInfoResponse is the JSON response for GET /api/icons/{identity}.
type IconInfoResponse struct {
	Identity  string   `json:"identity"`
	Size      int64    `json:"size"`
	SizeHuman string   `json:"size_human"`
	Modified  string   `json:"modified"`
	Digest    string   `json:"digest"`
	Color     string   `json:"color,omitempty"`
	URL       string   `json:"url"`
	Folders   []string `json:"folders"`
}

// iconURL is the public path of an asset's image.
func iconURL(id assetstore.Identity) string {
	return "/icons/" + id.Filename()
}

// receiveUpload applies the upload rate limit and body cap, then passes the
// file to the gate. It writes the error response itself and reports ok=false
// on failure.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (assetstore.Identity, bool) {
	if !s.uploads.Allow() {
		sendJSONError(w, http.StatusTooManyRequests, "upload rate limit exceeded")
		return "", false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.gate.MaxSize()+multipartOverhead)

	body, size, closeBody, err := uploadBody(r)
	if err != nil {
		s.sendError(w, r, err)
		return "", false
	}
	defer closeBody()

	id, err := s.gate.Upload(body, size)
	if err != nil {
		s.sendError(w, r, err)
		return "", false
	}
	return id, true
}

// uploadBody returns the uploaded file and its size, or -1 if unknown.
// Multipart requests carry the file in the "file" field; any other content
// type is taken as the raw file.
func uploadBody(r *http.Request) (io.Reader, int64, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, r.ContentLength, func() {}, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%w: reading multipart body: %v", errBadRequest, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, 0, nil, fmt.Errorf("%w: missing %q form field", errBadRequest, uploadField)
		}
		if err != nil {
			return nil, 0, nil, fmt.Errorf("reading multipart body: %w", err)
		}
		if part.FormName() == uploadField {
			return part, -1, func() { part.Close() }, nil
		}
		part.Close()
	}
}

// handleUpload handles POST /api/icons.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}
	writeIdentity(w, id)
}

// handleFolderUpload handles POST /api/folders/{id}/icon/upload[?attach=true].
// With attach, the folder's icon is switched to the new asset right away so a
// concurrent sweep cannot collect it.
func (s *Server) handleFolderUpload(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("id")
	if _, err := s.store.GetFolder(r.Context(), folderID); err != nil {
		s.sendError(w, r, fmt.Errorf("folder %q: %w", folderID, err))
		return
	}

	id, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("attach") == "true" {
		if err := s.replaceIcon(r, folderID, icon.Custom(id.String())); err != nil {
			s.assets.Discard(id)
			s.sendError(w, r, err)
			return
		}
	}

	writeIdentity(w, id)
}

func writeIdentity(w http.ResponseWriter, id assetstore.Identity) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Location", iconURL(id))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, id.String())
}

// handleListIcons handles GET /api/icons.
func (s *Server) handleListIcons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"icons": s.assets.List()})
}

// handleIconInfo handles GET /api/icons/{identity}.
func (s *Server) handleIconInfo(w http.ResponseWriter, r *http.Request) {
	id, err := assetstore.ParseIdentity(r.PathValue("identity"))
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	var info assetstore.Info
	var folders []string
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		info, err = s.assets.Info(id)
		return err
	})
	g.Go(func() error {
		var err error
		folders, err = s.index.ReferencedBy(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sendJSONError(w, http.StatusNotFound, "icon not found")
			return
		}
		s.sendError(w, r, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	s.digests.Put(id, info.Digest)

	writeJSON(w, http.StatusOK, IconInfoResponse{
		Identity:  id.String(),
		Size:      info.Size,
		SizeHuman: humanize.IBytes(uint64(info.Size)),
		Modified:  info.ModTime.UTC().Format(time.RFC3339),
		Digest:    info.Digest,
		Color:     info.Color,
		URL:       iconURL(id),
		Folders:   folders,
	})
}

// handleServeIcon handles GET /icons/{identity}.png.
// The ETag is the content digest, so conditional requests get 304.
func (s *Server) handleServeIcon(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	raw, ok := strings.CutSuffix(name, assetstore.Extension)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := assetstore.ParseIdentity(raw)
	if err != nil || id.Filename() != name {
		http.NotFound(w, r)
		return
	}

	f, stat, err := s.assets.Open(id)
	if err != nil {
		s.digests.Forget(id)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	digest, ok := s.digests.Get(id)
	if !ok {
		digest, err = s.assets.Digest(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.digests.Put(id, digest)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("ETag", `"`+digest+`"`)
	// An identity's content never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// handleSweep handles POST /api/icons/cleanup.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	report, err := s.cleanup.Sweep(r.Context())
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleUsage handles GET /api/icons/usage.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cleanup.DiskUsage())
}

// handleListSymbols handles GET /api/symbols.
func (s *Server) handleListSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols":  s.catalog.Names(),
		"degraded": s.catalog.Degraded(),
	})
}
