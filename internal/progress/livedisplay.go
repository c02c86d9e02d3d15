package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/fenilsonani/hunt/pkg/utils"
)

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// LiveDisplay prints a single self-overwriting status line to stderr,
// throttled to 100ms, the way the teacher's LiveProgress drives raw ANSI
// cursor control over golang.org/x/term. It is suppressed automatically
// by the caller when stderr is not a terminal, when --quiet is set, or
// once streaming output has begun.
type LiveDisplay struct {
	reporter *Reporter
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	active   bool
}

// NewLiveDisplay returns a LiveDisplay over r, not yet started.
func NewLiveDisplay(r *Reporter) *LiveDisplay {
	return &LiveDisplay{reporter: r, stop: make(chan struct{})}
}

// Start begins printing the status line every 100ms until Stop is called.
func (d *LiveDisplay) Start() {
	d.mu.Lock()
	d.active = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-d.stop:
				d.clear()
				return
			case <-ticker.C:
				d.render()
			}
		}
	}()
}

// Stop halts the display and clears the line it was printing.
func (d *LiveDisplay) Stop() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.mu.Unlock()

	close(d.stop)
	d.wg.Wait()
}

func (d *LiveDisplay) render() {
	dirs, matched, bytes, elapsed := d.reporter.Snapshot()
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	line := fmt.Sprintf("%d dirs, %d matches (%s), %s elapsed", dirs, matched, utils.FormatBytes(bytes), FormatDuration(elapsed))
	if len(line) > width {
		line = line[:width]
	}

	fmt.Fprint(os.Stderr, "\r\x1b[K"+statusStyle.Render(line))
}

func (d *LiveDisplay) clear() {
	fmt.Fprint(os.Stderr, "\r\x1b[K")
}
