package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// lineTolerance is the largest baseline difference, in points, between runs
// that still belong to the same line.
const lineTolerance = 2.0

// PDF extracts text from PDF documents, rebuilding lines from positioned
// text runs.
type PDF struct {
	Logger *zap.Logger
}

// Extract implements Extractor.
func (p *PDF) Extract(ctx context.Context, data []byte) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := pageRows(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}

		var runs []Run
		for _, row := range rows {
			for _, t := range row.Content {
				runs = append(runs, Run{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
			}
		}
		lines := Lines(runs)
		logger.Debug("extracted pdf page",
			zap.Int("page", i),
			zap.Int("runs", len(runs)),
			zap.Int("lines", len(lines)))
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return Normalize(strings.Join(pages, "\n")), nil
}

type rowsResult struct {
	rows pdf.Rows
	err  error
}

// pageRows runs the page decoder in its own goroutine so a content stream
// that never terminates cannot outlive ctx. Panics from the decoder are
// returned as errors. On cancellation the decoder goroutine is abandoned.
func pageRows(ctx context.Context, page pdf.Page) (pdf.Rows, error) {
	done := make(chan rowsResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- rowsResult{err: fmt.Errorf("malformed page: %v", r)}
			}
		}()
		rows, err := page.GetTextByRow()
		done <- rowsResult{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.rows, res.err
	}
}

// Run is a piece of text placed at a position on the page. Y grows upwards.
type Run struct {
	X, Y float64
	W    float64
	Size float64
	S    string
}

// Lines groups runs whose baselines lie within lineTolerance into lines,
// top to bottom, and joins each line left to right. A space is inserted
// where two runs are visibly apart.
func Lines(runs []Run) []string {
	if len(runs) == 0 {
		return nil
	}
	sorted := make([]Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var groups [][]Run
	lineY := math.Inf(1)
	for _, r := range sorted {
		if len(groups) == 0 || math.Abs(r.Y-lineY) > lineTolerance {
			groups = append(groups, nil)
			lineY = r.Y
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], r)
	}

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].X < g[j].X })
		lines = append(lines, joinRuns(g))
	}
	return lines
}

func joinRuns(runs []Run) string {
	var b strings.Builder
	for i, r := range runs {
		if i > 0 {
			prev := runs[i-1]
			gap := r.X - (prev.X + prev.W)
			if gap > spaceWidth(r.Size) && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(r.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(r.S)
	}
	return strings.TrimRight(b.String(), " ")
}

// spaceWidth is the smallest gap treated as a word break.
func spaceWidth(size float64) float64 {
	if size <= 0 {
		return 1
	}
	return size * 0.2
}
