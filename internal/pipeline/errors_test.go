package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

func TestResponseFromError_PlainErrorHasNoCode(t *testing.T) {
	resp := ResponseFromError(errors.New("boom"))
	assert.True(t, resp.IsError)
	assert.Equal(t, "boom", resp.Content[0].Text)
	assert.Nil(t, resp.Metadata)
}

func TestResponseFromError_CoderErrorAttachesCode(t *testing.T) {
	err := errorx.WithCode(ErrCodeCancelled, "stage %s: deadline exceeded", "Planning")
	resp := ResponseFromError(err)
	assert.True(t, resp.IsError)
	assert.Equal(t, ErrCodeCancelled, resp.Metadata["errorCode"])
}
