package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tupyy/taskpool/internal/util"
	"github.com/tupyy/taskpool/pkg/pool"
)

const (
	headerWidth = 22
	barSize     = 30
)

// Terminal renders the pool output as plain text: a header block, one
// line per event and a single live progress line rewritten in place.
type Terminal struct {
	out    io.Writer
	last   string
	colors map[pool.Level]*color.Color
}

func NewTerminal(out io.Writer) *Terminal {
	colors := map[pool.Level]*color.Color{
		pool.LevelVerbose: color.New(color.Faint),
		pool.LevelDebug:   color.New(color.FgCyan),
		pool.LevelInfo:    color.New(color.FgGreen),
		pool.LevelWarning: color.New(color.FgYellow),
		pool.LevelError:   color.New(color.FgRed, color.Bold),
	}

	f, isFile := out.(*os.File)
	if color.NoColor || !isFile || (f != os.Stdout && f != os.Stderr) {
		for _, c := range colors {
			c.DisableColor()
		}
	}

	return &Terminal{out: out, colors: colors}
}

func (t *Terminal) Header(h pool.Header) {
	fmt.Fprintln(t.out, RenderHeader(h))
}

func (t *Terminal) Event(e pool.Event) {
	t.clear()
	worker := e.Worker
	if c, ok := t.colors[e.Level]; ok {
		worker = c.Sprint(e.Worker)
	}
	fmt.Fprintf(t.out, "%s:\t%s\n", worker, e.Message)
}

func (t *Terminal) Progress(p pool.Progress) {
	line := RenderLine(p)
	pad := ""
	if n := len(t.last) - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(t.out, "\r"+line+pad)
	t.last = line
}

func (t *Terminal) Finish() {
	fmt.Fprintln(t.out)
}

// clear erases the progress line currently displayed.
func (t *Terminal) clear() {
	if t.last == "" {
		return
	}
	fmt.Fprint(t.out, "\r"+strings.Repeat(" ", len(t.last))+"\r")
}

// RenderHeader builds the fixed-width block printed when a run starts.
func RenderHeader(h pool.Header) string {
	bar := strings.Repeat("-", headerWidth)
	tasks := fmt.Sprintf("tasks: %d", h.Queued)
	if h.Streaming {
		tasks = "streaming"
	}
	jobs := fmt.Sprintf("jobs: %d (%d cpus)", h.Workers, h.CPUs)

	lines := []string{bar, "starting parallel jobs", bar, tasks, jobs, bar}
	for i, l := range lines {
		lines[i] = "# " + util.PadRight(l, headerWidth) + " #"
	}
	return strings.Join(lines, "\n")
}

// RenderLine builds the progress line, without carriage return:
//
//	07/10 [====================>         ] - 3.5 tasks/s - elapsed: 02s - eta: 01s
func RenderLine(p pool.Progress) string {
	total := strconv.Itoa(p.Total)
	var b strings.Builder

	b.WriteString(util.PadLeft(strconv.Itoa(p.Complete), len(total), '0'))
	b.WriteString("/")
	b.WriteString(total)
	b.WriteString(" [")

	filled := 0
	if p.Total > 0 {
		filled = barSize * p.Complete / p.Total
	}
	if filled > 0 {
		b.WriteString(strings.Repeat("=", filled-1))
	}
	if p.Complete == p.Total {
		b.WriteString("=")
	} else {
		b.WriteString(">")
	}
	b.WriteString(strings.Repeat(" ", barSize-filled))

	fmt.Fprintf(&b, "] - %s tasks/s", strconv.FormatFloat(util.Round(p.Rate()), 'f', -1, 64))
	b.WriteString(" - elapsed: " + FormatDuration(p.Elapsed))
	b.WriteString(" - eta: " + FormatDuration(p.ETA()))
	return b.String()
}

// FormatDuration renders d as "1h 02min", "03min 04s" or "05s".
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	minutes := seconds / 60
	seconds -= minutes * 60
	hours := minutes / 60
	minutes -= hours * 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 {
		parts = append(parts, util.PadLeft(strconv.Itoa(minutes), 2, '0')+"min")
	}
	if hours == 0 {
		parts = append(parts, util.PadLeft(strconv.Itoa(seconds), 2, '0')+"s")
	}
	return strings.Join(parts, " ")
}
