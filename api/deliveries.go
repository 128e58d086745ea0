package api

import (
	"net/http"
	"strconv"

	"github.com/spectree/hookline/delivery"
)

func (h *Handler) listDeliveries(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	opts := delivery.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}
	if v := queryParam(r, "success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success filter")
			return
		}
		opts.Success = &success
	}

	records, err := h.engine.Store().ListByWebhook(r.Context(), wh.ID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, records)
}
