package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatYAML, true},
		{FormatJSON, true},
		{FormatTable, true},
		{OutputFormat("dir"), false},
		{OutputFormat(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.format.Valid())
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  OutputFormat
		valid bool
	}{
		{"yaml", FormatYAML, true},
		{"YML", FormatYAML, true},
		{"json", FormatJSON, true},
		{"", FormatTable, true},
		{"table", FormatTable, true},
		{"xml", OutputFormat("xml"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseOutputFormat(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestWriteStructured(t *testing.T) {
	v := map[string]any{"name": "plot", "index": 1}

	var buf bytes.Buffer
	require.NoError(t, WriteStructured(&buf, FormatJSON, v))
	assert.JSONEq(t, `{"name":"plot","index":1}`, buf.String())

	buf.Reset()
	require.NoError(t, WriteStructured(&buf, FormatYAML, v))
	assert.Equal(t, "index: 1\nname: plot\n", buf.String())

	assert.Error(t, WriteStructured(&buf, FormatTable, v))
}
