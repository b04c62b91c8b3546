package msg

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestIndentWriter(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   string
	}{
		{"single line", []string{"hello\n"}, "    hello\n"},
		{"two lines one write", []string{"a\nb\n"}, "    a\n    b\n"},
		{"split across writes", []string{"he", "llo\nwor", "ld\n"}, "    hello\n    world\n"},
		{"no trailing newline", []string{"tail"}, "    tail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := &IndentWriter{Indent: "    ", W: &buf}
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				assert.NoError(t, err)
				assert.Equal(t, len(s), n)
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestInfoWritesLabel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	old := Output
	Output = &buf
	defer func() { Output = old }()

	Info("generated %s", "bin/native/development/Makefile")
	Warn("careful")

	assert.Equal(t, "info: generated bin/native/development/Makefile\nwarn: careful\n", buf.String())
}

func TestProgressBarConcurrentAdd(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(8, 2, &buf)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Add(1)
		}()
	}
	wg.Wait()
	pb.Finish()

	assert.Equal(t, 8, pb.Current())
	assert.True(t, strings.Contains(buf.String(), "8/8"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
