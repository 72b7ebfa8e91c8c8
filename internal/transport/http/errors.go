package http

import (
	"net/http"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

// Transport-level error codes (1006xx block; the pipeline itself owns
// 1001xx-1005xx in internal/pipeline/errors.go).
const (
	ErrBind = 100600 + iota
	ErrExecute
)

func init() {
	errorx.MustRegister(errorx.NewCoder(ErrBind, http.StatusBadRequest, "request body binding failed"))
	errorx.MustRegister(errorx.NewCoder(ErrExecute, http.StatusInternalServerError, "execute failed"))
}
