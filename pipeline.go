package swiftdsv

import (
	"bufio"
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// readChunkSize is how much the reader goroutine pulls from the source
// before handing a chunk to the queue. Matches the teacher's buffered
// reader's order of magnitude, scaled up since chunks now cross a queue
// instead of being parsed in place.
const readChunkSize = 1 << 20 // 1 MiB

// pipeline overlaps reading a source with parsing it: one goroutine reads
// readChunkSize chunks and pushes them onto a bounded queue; another pops
// chunks and feeds them to a Parser. Both goroutines are supervised by an
// errgroup.Group so a strict-mode parse error or a source read error is
// captured and re-raised to the caller on drain, instead of silently
// stopping one side.
type pipeline struct {
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	queue   *chunkQueue
	parser  *Parser
	metrics *Collector
	runID   string
	nrows   int // 0 means unbounded
	lines   int // source lines pushed onto the queue so far, readLoop-owned
}

// newPipeline starts the reader and worker goroutines against src, which
// newPipeline takes ownership of closing if it implements io.Closer.
// gzipSource requests transparent gzip decompression of src before chunking.
func newPipeline(src io.Reader, gzipSource bool, p *Parser, metrics *Collector, nrows int) (*pipeline, error) {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	runID := uuid.NewString()
	log := logger().With(zap.String("run_id", runID))

	reader := src
	if gzipSource {
		gz, err := gzip.NewReader(src)
		if err != nil {
			cancel()
			return nil, wrapError(KindOpenFailed, "failed to open gzip source", err)
		}
		reader = gz
	}

	pl := &pipeline{
		group:   group,
		ctx:     gctx,
		cancel:  cancel,
		queue:   newChunkQueue(),
		parser:  p,
		metrics: metrics,
		runID:   runID,
		nrows:   nrows,
	}

	group.Go(func() error {
		return pl.readLoop(reader, log)
	})
	group.Go(func() error {
		return pl.workLoop(log)
	})

	return pl, nil
}

func (pl *pipeline) readLoop(src io.Reader, log *zap.Logger) error {
	defer pl.queue.Close()

	br := bufio.NewReaderSize(src, readChunkSize)
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-pl.ctx.Done():
			// Cancellation comes from the worker's own failure; returning
			// nil leaves that error as the one Wait reports.
			return nil
		default:
		}

		n, err := br.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if pl.nrows > 0 {
				if truncated, done := pl.applyLineBudget(chunk); len(truncated) > 0 || done {
					if len(truncated) > 0 {
						pl.pushChunk(truncated)
					}
					if done {
						log.Debug("line budget reached, stopping reader", zap.Int("nrows", pl.nrows))
						return nil
					}
					continue
				}
			}
			pl.pushChunk(chunk)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapError(KindOpenFailed, "failed reading source", err)
		}
	}
}

func (pl *pipeline) pushChunk(chunk []byte) {
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	pl.queue.Push(cp)
	if pl.metrics != nil {
		pl.metrics.setQueueDepth(pl.queue.Len())
	}
}

// applyLineBudget counts newlines in chunk against the remaining nrows
// budget, owned solely by readLoop (never the racy, worker-updated parser
// row counter spec.md warns against trusting for this). It returns the
// prefix of chunk that should still be pushed and whether the budget is now
// exhausted, so the caller can push the prefix and stop without reading
// (or pushing) anything past the requested line count.
func (pl *pipeline) applyLineBudget(chunk []byte) (prefix []byte, done bool) {
	remaining := pl.nrows - pl.lines
	if remaining <= 0 {
		return nil, true
	}
	cut := len(chunk)
	seen := 0
	for i, b := range chunk {
		if b == '\n' {
			seen++
			if seen == remaining {
				cut = i + 1
				break
			}
		}
	}
	pl.lines += seen
	if seen >= remaining {
		return chunk[:cut], true
	}
	return chunk, false
}

func (pl *pipeline) workLoop(log *zap.Logger) error {
	pl.parser.OnBadRow(func(fields []string, rowNum int) {
		log.Debug("dropping bad row", zap.Int("row", rowNum), zap.Int("fields", len(fields)))
		if pl.metrics != nil {
			pl.metrics.observeRow(false)
		}
	})

	for {
		select {
		case <-pl.ctx.Done():
			return pl.ctx.Err()
		default:
		}

		chunk, ok := pl.queue.Pop()
		if !ok {
			return pl.parser.EndFeed()
		}
		before := pl.parser.CorrectRows()
		if err := pl.parser.Feed(chunk); err != nil {
			pl.cancel()
			pl.queue.Cancel()
			return err
		}
		if pl.metrics != nil {
			for i := 0; i < pl.parser.CorrectRows()-before; i++ {
				pl.metrics.observeRow(true)
			}
		}
	}
}

// Wait blocks until both goroutines finish, returning the first error
// either raised (a strict-mode malformed row or a source I/O failure).
func (pl *pipeline) Wait() error {
	err := pl.group.Wait()
	pl.cancel()
	return err
}
