package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineWriter(t *testing.T) {
	var lines []string
	w := NewLineWriter(func(msg interface{}, _ ...interface{}) { lines = append(lines, msg.(string)) })

	_, _ = w.Write([]byte("one\ntw"))
	_, _ = w.Write([]byte("o\r\nthree"))
	assert.Equal(t, []string{"one", "two"}, lines)

	w.Flush()
	w.Flush()
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}
