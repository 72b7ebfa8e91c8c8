// Package core provides the shared HTTP response envelope writer used by
// the transport/http handlers, matching the teacher's core.WriteResponse
// call-site shape.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

// ErrResponse is the JSON body returned on error.
type ErrResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WriteResponse writes err (if non-nil, as an ErrResponse with the coder's
// HTTP status) or data (as 200 OK JSON) to the gin context.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.JSON(errorx.HTTPStatus(err), ErrResponse{
		Code:    errorx.Code(err),
		Message: err.Error(),
	})
}
