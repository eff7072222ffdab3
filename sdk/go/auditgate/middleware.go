package auditgate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ppiankov/auditgate/internal/gate"
)

// Request headers Middleware reads to describe the task.
const (
	HeaderTask      = "X-Auditgate-Task"
	HeaderPrinciple = "X-Auditgate-Principle"
)

// Middleware returns an http.Handler that passes each request through an
// audit boundary before the next handler runs. Blocked requests receive a
// 403 with a JSON body.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		task, err := c.taskFromRequest(r)
		if err != nil {
			writeBlocked(w, http.StatusBadRequest, map[string]any{
				"blocked": true,
				"reason":  err.Error(),
			})
			return
		}

		serve := gate.ActionFunc[struct{}](func(ctx context.Context, _ Task) (struct{}, error) {
			next.ServeHTTP(w, r.WithContext(ctx))
			return struct{}{}, nil
		})
		guarded, err := gate.Guard(c.eng.Auditor, serve,
			gate.WithName("http_request"),
			gate.WithLogger(c.cfg.logger),
			gate.WithAlerts(c.eng.Alerts),
		)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_, err = guarded(r.Context(), task)
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			writeBlocked(w, http.StatusForbidden, map[string]any{
				"blocked":   true,
				"task_id":   task.ID,
				"reason":    blocked.Reason,
				"principle": string(task.Principle),
			})
		}
	})
}

// taskFromRequest maps an HTTP request to a Task. Without an explicit task
// header the description is the method and target.
func (c *Client) taskFromRequest(r *http.Request) (Task, error) {
	principle := c.cfg.principle
	if h := r.Header.Get(HeaderPrinciple); h != "" {
		p, err := ParsePrinciple(h)
		if err != nil {
			return Task{}, err
		}
		principle = p
	}

	desc := strings.TrimSpace(r.Header.Get(HeaderTask))
	if desc == "" {
		target := r.URL.RequestURI()
		if r.Host != "" {
			target = r.Host + target
		}
		desc = r.Method + " " + target
	}
	return NewTask(desc, principle), nil
}

func writeBlocked(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
