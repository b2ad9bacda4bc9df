// Package report renders a solution set as text.
package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gitlab.com/nqueens.net/internal/domain"
)

// Summary describes the run that produced a solution set
type Summary struct {
	Params  domain.Params
	Procs   int
	Elapsed time.Duration // omitted when zero
}

// Options controls what is rendered after the header
type Options struct {
	// Boards draws every listed solution as an n x n grid.
	Boards bool
	// Limit caps the number of listed solutions. Zero lists all of them.
	Limit int
}

// Write renders the header and the solutions in lexicographic order.
func Write(w io.Writer, summary Summary, sols domain.Solutions, opts Options) error {
	p := message.NewPrinter(language.English)
	bw := bufio.NewWriter(w)

	p.Fprintf(bw, "N-Queens n=%d k=%d procs=%d\n", summary.Params.N, summary.Params.K, summary.Procs)
	p.Fprintf(bw, "solutions: %d\n", sols.Count())
	if summary.Elapsed > 0 {
		p.Fprintf(bw, "elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
	}

	sorted := sols.Sorted()
	shown := sorted
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		shown = sorted[:opts.Limit]
	}

	for i, placement := range shown {
		if opts.Boards {
			p.Fprintf(bw, "\n#%d: %s\n", i+1, columns(placement))
			bw.WriteString(Board(placement))
			continue
		}
		bw.WriteString(columns(placement))
		bw.WriteByte('\n')
	}

	if rest := len(sorted) - len(shown); rest > 0 {
		p.Fprintf(bw, "... %d more\n", rest)
	}

	return bw.Flush()
}

// Board draws a placement with one row per line, Q marking the queen.
func Board(placement domain.Placement) string {
	var sb strings.Builder
	n := uint32(len(placement))
	for _, col := range placement {
		for c := uint32(0); c < n; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if c == col {
				sb.WriteByte('Q')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func columns(placement domain.Placement) string {
	parts := make([]string, len(placement))
	for i, col := range placement {
		parts[i] = strconv.FormatUint(uint64(col), 10)
	}
	return strings.Join(parts, " ")
}
