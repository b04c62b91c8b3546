package msg

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar counts finished units of work (e.g. generated Makefiles)
// and redraws a single status line. Safe for concurrent use.
type ProgressBar struct {
	Total  int
	Indent int
	Start  time.Time
	W      io.Writer

	mu         sync.Mutex
	current    int
	lastPrint  time.Time
	throbIndex int
}

var throbbers = []rune{'|', '/', '-', '\\'}

func NewProgressBar(total, indent int, w io.Writer) *ProgressBar {
	return &ProgressBar{
		Total:  total,
		Indent: indent,
		Start:  time.Now(),
		W:      w,
	}
}

// Add marks n more units as done.
func (pb *ProgressBar) Add(n int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current += n
	if time.Since(pb.lastPrint) > 40*time.Millisecond || pb.current >= pb.Total {
		pb.print(false)
		pb.lastPrint = time.Now()
	}
}

// Current returns the number of finished units.
func (pb *ProgressBar) Current() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current
}

func (pb *ProgressBar) print(finish bool) {
	width := 30
	percent := float64(pb.current) / float64(max(pb.Total, 1))
	if finish {
		percent = 1
	}

	filled := min(int(percent*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("-", width-filled)

	throb := throbbers[pb.throbIndex%len(throbbers)]
	pb.throbIndex++
	if finish {
		throb = ' '
	}

	fmt.Fprintf(pb.W, "\r%s%3d/%-3d [%s] %c",
		strings.Repeat(" ", pb.Indent),
		pb.current,
		pb.Total,
		bar,
		throb,
	)
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.print(true)
	fmt.Fprintf(pb.W, " %s\n", time.Since(pb.Start).Round(time.Millisecond))
}
