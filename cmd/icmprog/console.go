package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/scanner"
)

// console is the line-oriented operator interface: each input line is a
// scan, "arm" presses Program and "quit" leaves. It observes the station
// and prints every new notice.
type console struct {
	mu      sync.Mutex
	out     io.Writer
	lastSeq uint64
	shown   bool

	spinner  *progressbar.ProgressBar
	stopSpin chan struct{}
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

// OnSnapshot implements app.Observer.
func (c *console) OnSnapshot(s app.Snapshot) {
	c.show(s)
}

func (c *console) show(s app.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shown && s.Seq <= c.lastSeq {
		return
	}
	c.shown = true
	c.lastSeq = s.Seq

	if s.State != app.StateWriting {
		c.stopSpinnerLocked()
	}

	status := s.Notice.Status
	if status == "" {
		status = app.StatusIdle
	}
	fmt.Fprintf(c.out, "[%s] %s\n", status, s.Notice.Message)

	if s.State == app.StateWriting && c.spinner == nil {
		c.startSpinnerLocked(s.UnitID)
	}
}

func (c *console) startSpinnerLocked(unit string) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Writing "+unit),
		progressbar.OptionSetElapsedTime(true),
	)
	stop := make(chan struct{})
	c.spinner = bar
	c.stopSpin = stop

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.spinner == bar {
					_ = bar.Add(1)
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *console) stopSpinnerLocked() {
	if c.spinner == nil {
		return
	}
	close(c.stopSpin)
	_ = c.spinner.Clear()
	c.spinner = nil
	c.stopSpin = nil
}

// run reads scans from in until EOF, "quit" or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader, st *app.Station) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		errs <- sc.Err()
		close(lines)
	}()

	var buf scanner.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil
		case text, ok := <-lines:
			if !ok {
				return <-errs
			}
			switch strings.ToLower(strings.TrimSpace(text)) {
			case "":
				continue
			case "quit", "exit":
				return nil
			case "arm", "program":
				st.Arm()
				continue
			}
			buf.FeedString(text)
			if scan := buf.Terminate(); !st.Submit(scan) {
				c.mu.Lock()
				fmt.Fprintf(c.out, "Unrecognized barcode %s\n", scan)
				c.mu.Unlock()
			}
		}
	}
}
