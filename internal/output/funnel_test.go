package output

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunnelPreservesPerWriterOrder(t *testing.T) {
	var buf bytes.Buffer
	f := NewFunnel(&buf)

	const writers, lines = 4, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < lines; i++ {
				fmt.Fprintf(f, "w%d %d\n", w, i)
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, f.Close())

	next := make(map[string]int)
	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, out, writers*lines)
	for _, line := range out {
		var name string
		var n int
		_, err := fmt.Sscanf(line, "%s %d", &name, &n)
		require.NoError(t, err)
		assert.Equal(t, next[name], n, "lines of %s out of order", name)
		next[name]++
	}
}

func TestFunnelWithUnitLogger(t *testing.T) {
	var buf bytes.Buffer
	f := NewFunnel(&buf)
	NewUnitLogger(f, "unit").Info("generated", "asset", "plot.png")
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.Contains(t, buf.String(), "unit")
	assert.Contains(t, buf.String(), "asset=plot.png")
}
