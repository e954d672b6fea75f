package web

import (
	"net/http"

	"github.com/JonMunkholm/MenuEditor/internal/core"
)

type addedResponse struct {
	DomID string           `json:"domId"`
	Tree  core.ToppingTree `json:"tree"`
}

// respondTree writes the tree of the item being edited.
func respondTree(w http.ResponseWriter, r *http.Request, t *core.Toppings) {
	tree, err := t.Current()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, tree)
}

// handleOpenToppings starts editing an item's toppings. The platform is
// taken from the platform query parameter and defaults to SF.
func (s *Server) handleOpenToppings(w http.ResponseWriter, r *http.Request) {
	p := core.SF
	if q := r.URL.Query().Get("platform"); q != "" {
		var err error
		if p, err = core.ParsePlatform(q); err != nil {
			respondError(w, r, err)
			return
		}
	}

	tree, err := sessionFrom(r.Context()).Toppings.Open(p, pathParam(r, "domID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, tree)
}

// handleToppingTree returns the tree of the item being edited.
func (s *Server) handleToppingTree(w http.ResponseWriter, r *http.Request) {
	respondTree(w, r, sessionFrom(r.Context()).Toppings)
}

// handleConfirmToppings closes the editor.
func (s *Server) handleConfirmToppings(w http.ResponseWriter, r *http.Request) {
	n, err := sessionFrom(r.Context()).Toppings.Confirm()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]int{"selectedGroups": n})
}

// handleAddGroup appends a new topping group.
func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	t := sessionFrom(r.Context()).Toppings
	id, err := t.AddGroup()
	if err != nil {
		respondError(w, r, err)
		return
	}
	tree, err := t.Current()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, addedResponse{DomID: id, Tree: tree})
}

// handleUpdateGroup writes one group field.
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var edit fieldEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	t := sessionFrom(r.Context()).Toppings
	if err := t.UpdateGroupField(pathParam(r, "groupID"), edit.Field, edit.text()); err != nil {
		respondError(w, r, err)
		return
	}
	respondTree(w, r, t)
}

// handleDeleteGroup removes a group after confirmation.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	t := sessionFrom(r.Context()).Toppings
	c := confirmerFrom(r)
	if err := t.DeleteGroup(pathParam(r, "groupID"), c); err != nil {
		respondDeleteError(w, r, err, c)
		return
	}
	respondTree(w, r, t)
}

// handleAddTopping appends a new topping to a group.
func (s *Server) handleAddTopping(w http.ResponseWriter, r *http.Request) {
	t := sessionFrom(r.Context()).Toppings
	id, err := t.AddTopping(pathParam(r, "groupID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	tree, err := t.Current()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, r, http.StatusCreated, addedResponse{DomID: id, Tree: tree})
}

// handleUpdateTopping writes one topping field.
func (s *Server) handleUpdateTopping(w http.ResponseWriter, r *http.Request) {
	var edit fieldEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		respondError(w, r, err)
		return
	}

	t := sessionFrom(r.Context()).Toppings
	if err := t.UpdateToppingField(pathParam(r, "groupID"), pathParam(r, "toppingID"), edit.Field, edit.text()); err != nil {
		respondError(w, r, err)
		return
	}
	respondTree(w, r, t)
}

// handleDeleteTopping removes a topping after confirmation.
func (s *Server) handleDeleteTopping(w http.ResponseWriter, r *http.Request) {
	t := sessionFrom(r.Context()).Toppings
	c := confirmerFrom(r)
	if err := t.DeleteTopping(pathParam(r, "groupID"), pathParam(r, "toppingID"), c); err != nil {
		respondDeleteError(w, r, err, c)
		return
	}
	respondTree(w, r, t)
}
