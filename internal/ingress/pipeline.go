package ingress

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"driftbook/internal/engine"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// lineBufferSize bounds the channel joining the reader and writer
// goroutines. The source uses an unbounded channel (spec §5); a large
// buffered channel approximates that without risking unbounded memory
// growth on a pathological input, and never blocks the reader under
// normal operation since the writer only does a line-buffered write.
const lineBufferSize = 4096

// Pipeline wires a CSV input stream through the matching engine to a
// line-oriented output stream, following the reader/writer goroutine
// pair described in spec §5 and grounded on fenrir/internal/worker.go's
// tomb.Tomb-supervised worker pool.
type Pipeline struct {
	registry *engine.OrderBooks
	parser   *Parser
	out      io.Writer
}

// NewPipeline returns a Pipeline that delegates New-Order/Cancel-Order
// records to registry and writes rendered OrderResult lines to out.
func NewPipeline(registry *engine.OrderBooks, out io.Writer) *Pipeline {
	return &Pipeline{registry: registry, parser: NewParser(), out: out}
}

// Run drains in to completion, processing every record synchronously
// against the engine and emitting one line per OrderResult (plus
// pass-through comment lines) to the Pipeline's output, in arrival
// order. It returns the first fatal parse/read error encountered, if
// any — malformed N/C records and unreadable input are fatal at this
// boundary (spec §7).
func (p *Pipeline) Run(ctx context.Context, in io.Reader) error {
	t, ctx := tomb.WithContext(ctx)
	lines := make(chan string, lineBufferSize)

	t.Go(func() error {
		defer close(lines)
		return p.read(t, in, lines)
	})
	t.Go(func() error {
		return p.write(t, lines)
	})

	return t.Wait()
}

func (p *Pipeline) read(t *tomb.Tomb, in io.Reader, out chan<- string) error {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1 // tolerant of variable field counts per line
	reader.TrimLeadingSpace = true

	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		record, err := p.parser.Parse(fields)
		if err != nil {
			log.Error().Err(err).Strs("fields", fields).Msg("malformed record")
			return err
		}

		switch record.Kind {
		case KindPassthrough:
			out <- record.Line
		case KindNewOrder:
			for _, r := range p.registry.AddOrder(record.NewOrder) {
				out <- r.String()
			}
		case KindCancelOrder:
			for _, r := range p.registry.CancelOrder(record.CancelOrder) {
				out <- r.String()
			}
		case KindFlush:
			p.registry.Flush()
		case KindIgnore:
			// Unrecognized record types are silently dropped (spec §6).
		}
	}
}

func (p *Pipeline) write(t *tomb.Tomb, in <-chan string) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case line, ok := <-in:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(p.out, line); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
	}
}
