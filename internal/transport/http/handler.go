package http

import (
	"github.com/gin-gonic/gin"

	"github.com/forgecrew/promptengine/internal/engine"
	"github.com/forgecrew/promptengine/internal/pipeline"
	"github.com/forgecrew/promptengine/internal/pkg/core"
	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

// ExecuteHandler handles POST /v1/execute, the transport's sole operation
// (spec.md §6): bind the request envelope, run it through the engine,
// translate the pipeline Response back to JSON.
type ExecuteHandler struct {
	Engine *engine.Engine
}

// NewExecuteHandler builds an ExecuteHandler bound to an engine.
func NewExecuteHandler(e *engine.Engine) *ExecuteHandler {
	return &ExecuteHandler{Engine: e}
}

// Handle serves POST /v1/execute.
func (h *ExecuteHandler) Handle(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind execute request"), nil)
		return
	}

	resp, err := h.Engine.Execute(c.Request.Context(), pipeline.Request{
		Command:       req.Command,
		ChainID:       req.ChainID,
		UserResponse:  req.UserResponse,
		GateVerdict:   req.GateVerdict,
		GateAction:    req.GateAction,
		Gates:         req.Gates,
		ForceRestart:  req.ForceRestart,
		Options:       req.Options,
		APIValidation: req.APIValidation,
		QualityGates:  req.QualityGates,
		CustomChecks:  req.CustomChecks,
	})
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrExecute, "execute command"), nil)
		return
	}

	core.WriteResponse(c, nil, toExecuteResponse(resp))
}

func toExecuteResponse(r *pipeline.Response) ExecuteResponse {
	content := make([]ResponseContent, 0, len(r.Content))
	for _, c := range r.Content {
		content = append(content, ResponseContent{Type: c.Type, Text: c.Text})
	}
	return ExecuteResponse{
		Content:      content,
		IsError:      r.IsError,
		Metadata:     r.Metadata,
		CallToAction: r.CallToAction,
	}
}

// HealthHandler handles GET /healthz with a constant liveness payload —
// the engine itself has no external dependencies to probe beyond the
// registries' own journal files, already confirmed writable at startup.
func HealthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// VersionHandler handles GET /version, reporting build metadata plus
// startup diagnostics (resources externally modified while down, spec.md
// §4.10).
func VersionHandler(e *engine.Engine, version, commit string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, VersionResponse{
			Version:     version,
			Commit:      commit,
			Diagnostics: e.StartupDiagnostics(),
		})
	}
}
