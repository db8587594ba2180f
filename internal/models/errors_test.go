package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError_KindThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("submit draft: %w", StorageError("failed to upload final document", cause))

	assert.True(t, IsKind(err, KindStorage))
	assert.False(t, IsKind(err, KindPersistence))
	assert.ErrorIs(t, err, cause)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindStorage, kind)

	_, ok = KindOf(cause)
	assert.False(t, ok)
}

func TestPipelineError_Message(t *testing.T) {
	assert.Equal(t, `[invalid_attachment_type] attachment must be a PDF, got "image/png"`, InvalidAttachmentTypeError("image/png").Error())
	assert.Equal(t, "[document_parse] bad pdf: eof", DocumentParseError("bad pdf", errors.New("eof")).Error())
}
