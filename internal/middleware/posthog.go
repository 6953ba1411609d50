package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// EventRecorder receives API events. *utils.PosthogClientWrapper implements it.
type EventRecorder interface {
	IsInitialized() bool
	Enqueue(distinctID string, event string, properties map[string]any)
}

// ledgerEvents names the events for state-changing ledger routes, keyed by "METHOD route".
var ledgerEvents = map[string]string{
	"POST /api/v1/journals":                               "journal_draft_created",
	"PUT /api/v1/journals/:id":                            "journal_draft_updated",
	"DELETE /api/v1/journals/:id":                         "journal_draft_deleted",
	"POST /api/v1/journals/:id/post":                      "journal_entry_posted",
	"POST /api/v1/journals/:id/reverse":                   "journal_entry_reversed",
	"POST /api/v1/reconciliations":                        "reconciliation_started",
	"POST /api/v1/reconciliations/:id/statement":          "statement_imported",
	"POST /api/v1/reconciliations/:id/statement/csv":      "statement_imported",
	"POST /api/v1/reconciliations/:id/auto-match":         "reconciliation_auto_matched",
	"POST /api/v1/reconciliations/:id/matches":            "reconciliation_match_confirmed",
	"DELETE /api/v1/reconciliations/:id/matches/:groupId": "reconciliation_match_removed",
	"POST /api/v1/reconciliations/:id/complete":           "reconciliation_completed",
}

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health": true,
}

// PosthogMiddleware tracks successful API requests. Known ledger mutations get their
// own event name; other routes are named after the route path.
func PosthogMiddleware(recorder EventRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil || !recorder.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		actor, ok := GetActorFromContext(c)
		if !ok || actor.UserID == "" {
			return
		}

		eventName := EventName(c.Request.Method, c.FullPath())
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"role":        string(actor.Role),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, param := range c.Params {
				params[param.Key] = param.Value
			}
			props["params"] = params
		}

		recorder.Enqueue(actor.UserID, eventName, props)
	}
}

// EventName returns the event recorded for a request on route, or "" for unmatched routes.
func EventName(method, route string) string {
	if route == "" {
		return ""
	}
	if name, ok := ledgerEvents[method+" "+route]; ok {
		return name
	}
	// e.g. "/api/v1/journals/:id" -> "api_v1_journals_:id"
	return strings.ReplaceAll(strings.TrimPrefix(route, "/"), "/", "_")
}
