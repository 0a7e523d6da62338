//go:build unit

package templateutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTemplate(t *testing.T) {
	tests := []struct {
		name    string
		tpl     string
		data    interface{}
		want    string
		wantErr bool
	}{
		{
			name: "sprig function",
			tpl:  `{{ .Name | upper }}`,
			data: map[string]string{"Name": "logo.png"},
			want: "LOGO.PNG",
		},
		{
			name: "human size",
			tpl:  `{{ humanSize .Size }}`,
			data: map[string]int64{"Size": 2048},
			want: "2.0 kB",
		},
		{
			name:    "parse error",
			tpl:     `{{ .Name `,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExecuteTemplate(tt.tpl, tt.data)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLoadAllHelpersContent(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.tpl")
	p2 := filepath.Join(dir, "b.tpl")
	require.NoError(t, os.WriteFile(p1, []byte("A"), 0o600))
	require.NoError(t, os.WriteFile(p2, []byte("B"), 0o600))

	got, err := LoadAllHelpersContent([]string{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, "\nA\nB", got)

	_, err = LoadAllHelpersContent([]string{filepath.Join(dir, "missing.tpl")})
	assert.Error(t, err)
}
