// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inspect

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onePagePDF builds a minimal PDF 1.4 document with a correct xref table.
func onePagePDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    Info
		wantErr bool
	}{
		{name: "one page", content: onePagePDF(), want: Info{Version: "1.4", Pages: 1}},
		{name: "empty", content: nil, wantErr: true},
		{name: "plain text", content: []byte("this is not a pdf"), wantErr: true},
		{name: "truncated header", content: []byte("%PDF-1.4\n"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := PDFCPU{}.Inspect(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, info)
		})
	}
}

func TestInspect_EmptyIsSentinel(t *testing.T) {
	_, err := PDFCPU{}.Inspect([]byte{})
	assert.ErrorIs(t, err, ErrEmpty)
}
