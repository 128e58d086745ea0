package api

import (
	"net/http"
	"time"
)

// maxTestResponseBody bounds the subscriber response echoed to the caller.
const maxTestResponseBody = 500

// testWebhookResponse is the synchronous result of a test delivery.
type testWebhookResponse struct {
	WebhookID    string `json:"webhookId"`
	Event        string `json:"event"`
	StatusCode   int    `json:"statusCode"`
	LatencyMs    int    `json:"latencyMs"`
	Success      bool   `json:"success"`
	ResponseBody string `json:"responseBody,omitempty"`
	DeliveredAt  string `json:"deliveredAt"`
}

// testWebhook sends one canned test event synchronously. A failing
// subscriber is a normal outcome: the response reports success=false with
// status 200, so the dashboard can render the result either way.
func (h *Handler) testWebhook(w http.ResponseWriter, r *http.Request) {
	wh, ok := h.fetchScoped(w, r)
	if !ok {
		return
	}

	d, err := h.engine.SendTest(r.Context(), wh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := d.ResponseBody
	if len(body) > maxTestResponseBody {
		body = body[:maxTestResponseBody]
	}

	writeJSON(w, http.StatusOK, testWebhookResponse{
		WebhookID:    wh.ID.String(),
		Event:        d.Event,
		StatusCode:   d.StatusCode,
		LatencyMs:    d.LatencyMs,
		Success:      d.Success,
		ResponseBody: body,
		DeliveredAt:  d.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}
