package progress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/konveyor/task-monitor/monitor"
)

var _ monitor.Prompter = (*LinePrompter)(nil)

// LinePrompter asks yes/no questions on a line-oriented terminal. It is the
// prompt surface paired with the text, JSON and bar reporters.
//
// Input is read by a single goroutine started on the first question, so an
// answer typed after a question was abandoned is not lost; it answers the next
// question instead.
type LinePrompter struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
	mu    sync.Mutex
}

// NewLinePrompter creates a prompter reading answers from in and writing
// questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    in,
		out:   out,
		lines: make(chan string),
	}
}

// AskYesNo writes the question and waits for a line. "y" and "yes", in any
// case, confirm; anything else, end of input or ctx ending declines.
func (p *LinePrompter) AskYesNo(ctx context.Context, title, question string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once.Do(func() {
		go p.readLines()
	})

	fmt.Fprintf(p.out, "%s %s [y/N] ", title, question)
	select {
	case line, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false
	}
}

func (p *LinePrompter) readLines() {
	defer close(p.lines)
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
}
