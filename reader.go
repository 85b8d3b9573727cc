package swiftdsv

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// guessSampleBytes bounds how much of a source is read up front to drive
// GuessFormat when a Reader is constructed with delimiter autodetection.
const guessSampleBytes = 64 * 1024

// Reader is the façade over the parser, ingestion pipeline, and format
// guesser: construct it from a path (optionally autodetecting the format)
// or from a Format alone for push-mode ingestion, then drain it with
// ReadRow or the Next/Row/Err iterator.
type Reader struct {
	format  Format
	parser  *Parser
	closer  io.Closer
	pipe    *pipeline
	metrics *Collector
	nrows   int

	pipeErr  error
	pipeDone bool

	curRow Row
	curErr error
	closed bool
}

// ReaderOption configures optional Reader behavior at construction time.
type ReaderOption func(*Reader)

// WithMetrics attaches a prometheus Collector labeled source to the Reader.
func WithMetrics(source string) ReaderOption {
	return func(r *Reader) { r.metrics = NewCollector(source) }
}

// WithNRows caps how many source lines the ingestion pipeline's reader
// goroutine will push onto the queue before it stops pulling from the
// source, leaving the remainder unread. The count is of raw lines, not
// parsed records: a header row, a comment line, or a malformed row each
// count toward the budget the same as a correctly parsed one.
func WithNRows(n int) ReaderOption {
	return func(r *Reader) { r.nrows = n }
}

// Open constructs a Reader over the file at path. If format.Delim is zero,
// the first guessSampleBytes of the file are sampled through GuessFormat to
// pick a delimiter and header row before real ingestion begins.
func Open(path string, format Format, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindOpenFailed, "failed to open "+path, err)
	}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, wrapError(KindOpenFailed, "failed to sniff "+path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, wrapError(KindOpenFailed, "failed to rewind "+path, err)
	}
	gzipSource := strings.HasSuffix(path, ".gz") || (magic[0] == 0x1f && magic[1] == 0x8b)

	resolved := format
	if resolved.Delim == 0 {
		var sampleSrc io.Reader = f
		if gzipSource {
			gz, err := gzip.NewReader(f)
			if err != nil {
				f.Close()
				return nil, wrapError(KindOpenFailed, "failed to open gzip source "+path, err)
			}
			sampleSrc = gz
		}

		sample := make([]byte, guessSampleBytes)
		n, rerr := sampleSrc.Read(sample)
		if rerr != nil && rerr != io.EOF {
			f.Close()
			return nil, wrapError(KindOpenFailed, "failed to sample "+path, rerr)
		}
		resolved = GuessFormat(sample[:n])
		if len(format.ColNames) > 0 {
			resolved.ColNames = format.ColNames
			resolved.Header = NoHeader
		}
		resolved.Strict = format.Strict
		resolved.Subset = format.Subset
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, wrapError(KindOpenFailed, "failed to rewind "+path, serr)
		}
	}

	r := &Reader{format: resolved, parser: NewParser(resolved), closer: f}
	for _, opt := range opts {
		opt(r)
	}

	pipe, err := newPipeline(f, gzipSource, r.parser, r.metrics, r.nrows)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.pipe = pipe
	return r, nil
}

// OpenFormat constructs a Reader in push mode: there is no source to read
// from, and the caller drives parsing explicitly via Feed/EndFeed. format
// must set Delim explicitly; autodetection has no source to sample.
func OpenFormat(format Format, opts ...ReaderOption) *Reader {
	r := &Reader{format: format, parser: NewParser(format)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed hands chunk directly to the underlying Parser, for push-mode Readers
// constructed with OpenFormat. It is not valid to call Feed on a Reader
// constructed with Open, which already owns its own ingestion pipeline.
func (r *Reader) Feed(chunk []byte) error {
	return r.parser.Feed(chunk)
}

// EndFeed signals end-of-input to a push-mode Reader's Parser.
func (r *Reader) EndFeed() error {
	return r.parser.EndFeed()
}

// ReadRow returns the next parsed row, io.EOF once the source (or push-mode
// input) is exhausted and drained, or any error the ingestion pipeline
// raised.
func (r *Reader) ReadRow() (Row, error) {
	for {
		if row, ok := r.parser.PopRow(); ok {
			return row, nil
		}
		if r.pipe == nil {
			return Row{}, io.EOF
		}
		if r.pipeDone {
			if r.pipeErr != nil {
				return Row{}, r.pipeErr
			}
			return Row{}, io.EOF
		}
		r.pipeErr = r.pipe.Wait()
		r.pipeDone = true
	}
}

// Next advances the Reader to the next row, matching the bufio.Scanner
// idiom: call Next in a loop, reading Row() after each true return, and
// check Err() once Next returns false.
func (r *Reader) Next() bool {
	row, err := r.ReadRow()
	if err != nil {
		if err != io.EOF {
			r.curErr = err
		}
		return false
	}
	r.curRow = row
	return true
}

// Row returns the row most recently produced by Next.
func (r *Reader) Row() Row { return r.curRow }

// Err returns the first non-EOF error Next encountered.
func (r *Reader) Err() error { return r.curErr }

// ColumnNames returns the reader's column names, installed once the header
// row (or push-mode caller-supplied names) has been seen.
func (r *Reader) ColumnNames() *ColumnNames { return r.parser.ColumnNames() }

// Format returns the Format the Reader was ultimately constructed with
// (post-autodetection, if GuessFormat ran).
func (r *Reader) Format() Format { return r.format }

// Close releases the underlying source, if any. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pipe != nil && !r.pipeDone {
		r.pipeErr = r.pipe.Wait()
		r.pipeDone = true
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
