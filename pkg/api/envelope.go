package api

import (
	"net/http"
	"time"

	"github.com/bjartek/keeper/pkg/supervisor"
	"github.com/gin-gonic/gin"
)

// Envelope is the response body of every endpoint.
type Envelope struct {
	Status string              `json:"status"`
	Result interface{}         `json:"result"`
	Errors map[string][]string `json:"errors"`
	Meta   Meta                `json:"meta"`
}

// Meta describes the request an envelope answers.
type Meta struct {
	Path       string `json:"path"`
	Timestamp  string `json:"timestamp"`
	DurationMs int64  `json:"duration_ms"`
	RequestID  string `json:"request_id"`
}

const (
	ctxStart     = "keeper.start"
	ctxRequestID = "keeper.request_id"
)

func meta(c *gin.Context) Meta {
	m := Meta{
		Path:      c.Request.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RequestID: c.GetString(ctxRequestID),
	}
	if start, ok := c.Get(ctxStart); ok {
		m.DurationMs = time.Since(start.(time.Time)).Milliseconds()
	}
	return m
}

func respond(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Status: "success",
		Result: result,
		Meta:   meta(c),
	})
}

func respondError(c *gin.Context, err error) {
	kind := supervisor.ErrorKind(err)
	c.JSON(statusCode(kind), Envelope{
		Status: "error",
		Errors: map[string][]string{kind: {err.Error()}},
		Meta:   meta(c),
	})
}

func statusCode(kind string) int {
	switch kind {
	case "already_running", "not_running":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
