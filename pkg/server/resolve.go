package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vango-dev/breadcrumbs/internal/errors"
	"github.com/vango-dev/breadcrumbs/pkg/breadcrumbs"
)

// TrailItem is one flattened content unit.
type TrailItem struct {
	Key   string `json:"key"`
	Title any    `json:"title"`
	URL   string `json:"url,omitempty"`
	Last  bool   `json:"last"`
}

// View is the JSON form of a trail.
type View struct {
	Path       string                         `json:"path"`
	Crumbs     []*breadcrumbs.CrumbData[any] `json:"crumbs"`
	Trail      []TrailItem                    `json:"trail"`
	Loading    bool                           `json:"loading"`
	ActivePath *string                        `json:"activePath,omitempty"`
	Error      *errors.CrumbError             `json:"error,omitempty"`
}

// NewView builds the View of a snapshot. err is the tracker's last fetch
// error, if any.
func NewView(path string, snap breadcrumbs.Snapshot[any], err error) View {
	v := View{
		Path:       path,
		Crumbs:     snap.Crumbs,
		Trail:      []TrailItem{},
		Loading:    snap.Loading,
		ActivePath: snap.ActivePath,
		Error:      errors.FromError(err, "B001"),
	}
	if v.Crumbs == nil {
		v.Crumbs = []*breadcrumbs.CrumbData[any]{}
	}
	breadcrumbs.ForEachFlatCrumb(snap.Crumbs, func(unit breadcrumbs.CrumbContent[any], isLast bool, key string) {
		v.Trail = append(v.Trail, TrailItem{Key: key, Title: unit.Title, URL: unit.URL, Last: isLast})
	})
	return v
}

// handleCrumbs resolves the trail for ?path= and waits for fetched crumbs
// up to the settle timeout. A trail that has not settled in time is
// returned with loading set.
func (s *Server) handleCrumbs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	res, err := s.table.Match(path)
	if err != nil {
		s.writeError(w, err)
		return
	}

	logger := s.logger.With("path", res.Path)
	tr := breadcrumbs.New[any](s.trackerOptions(logger)...)
	defer tr.Close()

	tr.Recompute(r.Context(), res.Matches, res.Params)

	ctx, cancel := context.WithTimeout(r.Context(), s.config.SettleTimeout)
	defer cancel()
	if err := tr.Wait(ctx); err != nil {
		logger.Warn("trail did not settle", "error", errors.New("B062").Wrap(err))
	}

	writeJSON(w, http.StatusOK, NewView(res.Path, tr.Snapshot(), tr.Err()))
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"routes": s.table.Routes()})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	ce := errors.FromError(err, "B022")
	status := http.StatusInternalServerError
	switch ce.Code {
	case "B022":
		status = http.StatusNotFound
	case "B024":
		status = http.StatusBadRequest
	}
	s.logger.Debug("request failed", "code", ce.Code, "error", ce)
	writeJSON(w, status, map[string]any{"error": ce})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
