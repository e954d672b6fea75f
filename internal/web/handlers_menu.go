package web

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// fieldEdit is the body of a single-field edit. Value may be any JSON
// scalar; it is applied as text.
type fieldEdit struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (e fieldEdit) text() string {
	return tabular.ScalarText(e.Value)
}

// pathParam returns the unescaped URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// platformParam parses the {platform} URL parameter.
func platformParam(r *http.Request) (core.Platform, error) {
	return core.ParsePlatform(chi.URLParam(r, "platform"))
}

// confirmer answers a deletion prompt from the confirm query parameter and
// remembers the prompt for the refusal response.
type confirmer struct {
	ok     bool
	prompt string
}

func confirmerFrom(r *http.Request) *confirmer {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return &confirmer{ok: ok}
}

func (c *confirmer) Confirm(prompt string) bool {
	c.prompt = prompt
	return c.ok
}

// respondDeleteError writes err, including the prompt of a refused deletion.
func respondDeleteError(w http.ResponseWriter, r *http.Request, err error, c *confirmer) {
	writeErrorResponse(w, r, err, ErrorResponse{Prompt: c.prompt})
}

// handleMenu returns the category view of a platform.
func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := sessionFrom(r.Context()).Menu.View(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, view)
}

// handleVendor returns the vendor form of a platform.
func (s *Server) handleVendor(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := sessionFrom(r.Context()).Menu.VendorView(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, view)
}

// handleUpdateVendor writes one vendor form field.
func (s *Server) handleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var edit fieldEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.Menu.UpdateVendorField(p, edit.Field, edit.text()); err != nil {
		respondError(w, r, err)
		return
	}
	view, err := sess.Menu.VendorView(p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, view)
}

// handleUpdateItem writes one item field and returns the item.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	domID := pathParam(r, "domID")

	var edit fieldEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.Menu.UpdateItemField(p, domID, edit.Field, edit.text()); err != nil {
		respondError(w, r, err)
		return
	}
	item, err := sess.Store.Item(p, domID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, item)
}

// handleDeleteItem removes an item. Without confirm=true the deletion is
// refused and the response carries the prompt to show.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	domID := pathParam(r, "domID")

	c := confirmerFrom(r)
	if err := sessionFrom(r.Context()).Menu.DeleteItem(p, domID, c); err != nil {
		respondDeleteError(w, r, err, c)
		return
	}

	logging.WithFields(r.Context(), "platform", p, "dom_id", domID).Info("item deleted")
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	Name      string `json:"name"`
	SectionID string `json:"sectionId"`
}

// handleAddCategory records a new, empty category.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	name, err := sessionFrom(r.Context()).Menu.AddCategory(p, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, categoryResponse{Name: name, SectionID: core.SectionID(p, name)})
}

// handleUndoCategory forgets a manually added category.
func (s *Server) handleUndoCategory(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sessionFrom(r.Context()).Menu.UndoManualCategory(p, pathParam(r, "name")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddItem appends a new item to a category.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	item, err := sessionFrom(r.Context()).Menu.AddItemToCategory(p, pathParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, item)
}

// handleToggleSection flips a section between collapsed and expanded.
func (s *Server) handleToggleSection(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	collapsed, err := sessionFrom(r.Context()).Menu.ToggleSection(p, pathParam(r, "sectionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]bool{"collapsed": collapsed})
}

// handleFocusSection expands a section.
func (s *Server) handleFocusSection(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := sessionFrom(r.Context()).Menu.FocusSection(p, pathParam(r, "sectionID")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]bool{"collapsed": false})
}

// handleExport streams the generated CSV as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := platformParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	file, err := sessionFrom(r.Context()).Exporter.Export(p)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	if _, err := w.Write(file.Content); err != nil {
		logging.FromContext(r.Context()).Error("export write failed", "platform", p, "error", err)
	}
}
