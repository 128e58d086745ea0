package api

import (
	"errors"
	"net/http"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/scope"
	"github.com/spectree/hookline/webhook"
)

type createWebhookRequest struct {
	OrgID         string            `json:"org_id"`
	URL           string            `json:"url"`
	Description   string            `json:"description,omitempty"`
	Secret        string            `json:"secret,omitempty"`
	Events        []string          `json:"events"`
	Headers       map[string]string `json:"headers,omitempty"`
	PayloadFields []string          `json:"payload_fields,omitempty"`
}

type updateWebhookRequest struct {
	URL           string            `json:"url"`
	Description   string            `json:"description,omitempty"`
	Events        []string          `json:"events"`
	Headers       map[string]string `json:"headers,omitempty"`
	PayloadFields []string          `json:"payload_fields,omitempty"`
}

// createWebhookResponse carries the signing secret exactly once, at creation.
type createWebhookResponse struct {
	*webhook.Webhook
	Secret string `json:"secret"`
}

func (h *Handler) createWebhook(w http.ResponseWriter, r *http.Request) {
	var req createWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A scoped caller may omit org_id; an explicit mismatch is rejected.
	if scoped := scope.OrgFromContext(r.Context()); scoped != "" {
		if req.OrgID == "" {
			req.OrgID = scoped
		} else if req.OrgID != scoped {
			writeError(w, http.StatusForbidden, "org_id does not match caller scope")
			return
		}
	}

	input := webhook.Input{
		OrgID:         req.OrgID,
		URL:           req.URL,
		Description:   req.Description,
		Secret:        req.Secret,
		Events:        req.Events,
		Headers:       req.Headers,
		PayloadFields: req.PayloadFields,
	}

	wh, err := h.engine.Webhooks().Register(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, createWebhookResponse{Webhook: wh, Secret: wh.Secret})
}

func (h *Handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	orgID := queryParam(r, "org")
	if scoped := scope.OrgFromContext(r.Context()); scoped != "" {
		orgID = scoped
	}
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "org query parameter is required")
		return
	}

	opts := webhook.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}
	if status := queryParam(r, "status"); status != "" {
		st := webhook.Status(status)
		opts.Status = &st
	}

	whs, err := h.engine.Webhooks().List(r.Context(), orgID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, whs)
}

func (h *Handler) getWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (h *Handler) updateWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	var req updateWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := webhook.Input{
		URL:           req.URL,
		Description:   req.Description,
		Events:        req.Events,
		Headers:       req.Headers,
		PayloadFields: req.PayloadFields,
	}

	updated, err := h.engine.Webhooks().Update(r.Context(), wh.ID, input)
	if err != nil {
		if errors.Is(err, hookline.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	if err := h.engine.Webhooks().Delete(r.Context(), wh.ID); err != nil {
		if errors.Is(err, hookline.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pauseWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	if err := h.engine.Webhooks().Pause(r.Context(), wh.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resumeWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	if err := h.engine.Webhooks().Resume(r.Context(), wh.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rotateSecret(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	newSecret, err := h.engine.Webhooks().RotateSecret(r.Context(), wh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secret": newSecret})
}

// fetchScoped parses the path id, loads the webhook, and enforces org scope.
// Webhooks outside the caller's org are reported as not found.
func (h *Handler) fetchScoped(w http.ResponseWriter, r *http.Request) (*webhook.Webhook, bool) {
	whID, err := id.ParseWebhookID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook ID")
		return nil, false
	}

	wh, err := h.engine.Webhooks().Get(r.Context(), whID)
	if err != nil {
		if errors.Is(err, hookline.ErrWebhookNotFound) {
			writeError(w, http.StatusNotFound, "webhook not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if !scope.Allows(r.Context(), wh.OrgID) {
		writeError(w, http.StatusNotFound, "webhook not found")
		return nil, false
	}

	return wh, true
}
