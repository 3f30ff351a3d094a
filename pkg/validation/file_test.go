package validation

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"antares-helpdesk/config"
	apperrors "antares-helpdesk/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestValidateFile_AcceptsBySignature(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngHeader, "image/png"},
		{"pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"), "application/pdf"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := bytes.NewReader(tc.data)
			got, err := ValidateFile(int64(len(tc.data)), r, config.UploadTicketAttachment)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			pos, err := r.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Zero(t, pos, "курсор должен вернуться в начало")
		})
	}
}

func TestValidateFile_RejectsPlainText(t *testing.T) {
	data := []byte("esto no es una imagen, es solo texto")

	_, err := ValidateFile(int64(len(data)), bytes.NewReader(data), config.UploadMessageAttachment)

	assert.ErrorIs(t, err, apperrors.ErrFileTypeNotAllowed)
}

func TestValidateFile_RejectsOversizeBeforeSniffing(t *testing.T) {
	_, err := ValidateFile(10*1024*1024+1, bytes.NewReader(pngHeader), config.UploadTicketAttachment)

	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
}

func TestValidateFile_ExactLimitAllowed(t *testing.T) {
	_, err := ValidateFile(10*1024*1024, bytes.NewReader(pngHeader), config.UploadTicketAttachment)

	assert.NoError(t, err)
}

func TestValidateFile_UnknownContext(t *testing.T) {
	_, err := ValidateFile(1, bytes.NewReader(pngHeader), "avatar")

	assert.Error(t, err)
}
