package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kbukum/packetflow/link"
	"github.com/kbukum/packetflow/logger"
)

// lineReader splits input lines across the graph's sources. With a single
// source every line goes to it; otherwise a line reads "source<TAB>text" and
// lines naming an unknown source are dropped.
type lineReader struct {
	in       io.Reader
	names    []string
	channels map[string]chan string
	log      *logger.Logger
}

func newLineReader(in io.Reader, names []string, capacity int) *lineReader {
	r := &lineReader{
		in:       in,
		names:    names,
		channels: make(map[string]chan string, len(names)),
		log:      logger.Get("source"),
	}
	for _, name := range names {
		r.channels[name] = make(chan string, capacity)
	}
	return r
}

// Sources returns one stream per source name.
func (r *lineReader) Sources() map[string]*link.PacketStream[string] {
	out := make(map[string]*link.PacketStream[string], len(r.channels))
	for name, ch := range r.channels {
		out[name] = link.NewStream[string](ch)
	}
	return out
}

// Runnable reads until EOF and closes every source stream.
func (r *lineReader) Runnable() *link.Runnable {
	return link.NewRunnable("stdin", func(ctx context.Context) error {
		defer func() {
			for _, ch := range r.channels {
				close(ch)
			}
		}()

		lines := make(chan string)
		scanErr := make(chan error, 1)
		go func() {
			defer close(lines)
			sc := bufio.NewScanner(r.in)
			for sc.Scan() {
				select {
				case lines <- sc.Text():
				case <-ctx.Done():
					return
				}
			}
			scanErr <- sc.Err()
		}()

		for {
			select {
			case line, ok := <-lines:
				if !ok {
					select {
					case err := <-scanErr:
						return err
					default:
						return ctx.Err()
					}
				}
				ch, text := r.route(line)
				if ch == nil {
					r.log.Warn("line for unknown source dropped", logger.Fields("line", line))
					continue
				}
				select {
				case ch <- text:
				case <-ctx.Done():
					return ctx.Err()
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

func (r *lineReader) route(line string) (chan string, string) {
	if len(r.names) == 1 {
		return r.channels[r.names[0]], line
	}
	name, text, ok := strings.Cut(line, "\t")
	if !ok {
		return nil, ""
	}
	return r.channels[name], text
}

// lineWriter serializes sink output as "sink<TAB>text" lines.
type lineWriter struct {
	mu     sync.Mutex
	out    io.Writer
	prefix bool
}

func (w *lineWriter) write(sink, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.prefix {
		_, err = fmt.Fprintf(w.out, "%s\t%s\n", sink, text)
	} else {
		_, err = fmt.Fprintln(w.out, text)
	}
	return err
}

// sinkRunnables drains every sink into w, in name order.
func sinkRunnables(sinks map[string]*link.PacketStream[string], names []string, w *lineWriter) ([]*link.Runnable, error) {
	runnables := make([]*link.Runnable, 0, len(names))
	for _, name := range names {
		name := name
		run, err := link.Drain(name+".out", sinks[name], func(_ context.Context, text string) error {
			return w.write(name, text)
		})
		if err != nil {
			return nil, err
		}
		runnables = append(runnables, run)
	}
	return runnables, nil
}
