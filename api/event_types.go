package api

import "net/http"

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog().List())
}

func (h *Handler) getEventType(w http.ResponseWriter, r *http.Request) {
	def, ok := h.engine.Catalog().Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "event type not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}
