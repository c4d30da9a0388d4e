// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/pkg/types"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "report.docx", FileName("report.pdf"))
	assert.Equal(t, "report.docx", FileName("/uploads/report.pdf"))
	assert.Equal(t, "scan.docx", FileName("scan"))
	assert.Equal(t, "Report.docx", FileName("Report.PDF"))
	assert.Equal(t, "archive.tar.docx", FileName("archive.tar"))
}

func TestFileName_MatchesConvertedName(t *testing.T) {
	for _, name := range []string{"report.pdf", "archive.tar", "scan", "notes.v2.pdf"} {
		assert.Equal(t, engine.DocxName(name), FileName(name), name)
	}
}

func TestBuild_Placeholder(t *testing.T) {
	in := Input{
		Original:  types.FileDescriptor{Name: "report.pdf", Size: 2048},
		Converted: types.FileDescriptor{Name: "report.docx", Size: 2500},
		Pages:     3,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	a, err := Build(in)
	require.NoError(t, err)

	assert.Equal(t, "report.docx", a.Name)
	assert.Equal(t, MediaTypeDOCX, a.MediaType)

	body := string(a.Body)
	assert.Contains(t, body, "report.pdf (2 KB, 2048 bytes)")
	assert.Contains(t, body, "report.docx (2.44 KB, 2500 bytes)")
	assert.Contains(t, body, "Pages:          3")
	assert.Contains(t, body, "2026-01-02T03:04:05Z")
}

func TestBuild_NoPagesLine(t *testing.T) {
	a, err := Build(Input{
		Original:  types.FileDescriptor{Name: "a.pdf", Size: 1},
		Converted: types.FileDescriptor{Name: "a.docx", Size: 1},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(a.Body), "Pages:")
}

func TestBuild_EngineContent(t *testing.T) {
	a, err := Build(Input{
		Original:  types.FileDescriptor{Name: "a.pdf", Size: 1},
		Converted: types.FileDescriptor{Name: "a.docx", Size: 4},
		Content:   []byte("PK\x03\x04"),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), a.Body)
}
