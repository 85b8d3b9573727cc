package swiftdsv

import (
	"sync"
	"sync/atomic"

	"github.com/JohnCGriffin/overflow"
)

// BadRowObserver is invoked synchronously, from whichever goroutine called
// Feed or EndFeed, whenever a finalized record's field count disagrees with
// the column count and Format.Strict is false. It must not call back into
// the Parser or Reader that invoked it. fields holds the offending record's
// raw field texts; rowNum is the 0-based record count at the time the row
// was rejected (matching Parser.RowNum at the moment of the call).
type BadRowObserver func(fields []string, rowNum int)

// Parser is the chunk-boundary-correct byte-stream state machine at the
// core of the engine (spec component C3). It consumes arbitrary-sized
// chunks via Feed and appends accepted rows to an internal output queue
// popped with PopRow. All mutable parsing state is owned by the Parser
// itself (never per-call locals), so chunking is transparent except for the
// one-byte CR/quote lookahead carries documented on the fields below.
type Parser struct {
	delim  byte
	quote  byte
	strict bool
	header int // header row index; < 0 means no header row to detect

	names         *ColumnNames
	namesExternal bool
	subset        []int
	subsetNames   *ColumnNames // lazily built once names is known, cached
	onBadRow      BadRowObserver

	// in-flight record state, reset on every finalized record
	quoteEscape bool
	rowBuf      []byte
	splits      []int
	fieldStart  int
	lastWasDelim bool

	// one-byte carries across Feed() chunk boundaries
	pendingCR            bool
	pendingQuoteLookahead bool

	// rowNum and correctRows are written only by the goroutine calling
	// Feed/EndFeed but may be read from others (for example while the
	// ingestion pipeline's worker goroutine is feeding), hence atomics
	// rather than plain ints.
	rowNum      atomic.Int64
	correctRows atomic.Int64

	// outMu guards out and names, the two fields a concurrent Reader/
	// pipeline reader may access while Feed is still appending to them.
	outMu sync.Mutex
	out   []Row
}

// RowNum reports how many records have been finalized so far (correct and
// bad combined), safe to read from any goroutine.
func (p *Parser) RowNum() int { return int(p.rowNum.Load()) }

// CorrectRows reports how many finalized records matched the column count.
func (p *Parser) CorrectRows() int { return int(p.correctRows.Load()) }

// NewParser builds a Parser from a Format. A non-nil externalNames installs
// ColumnNames immediately (Format.ColNames was supplied), suppressing header
// row detection.
func NewParser(f Format) *Parser {
	p := &Parser{
		delim:  f.delimOrDefault(),
		quote:  f.quoteOrDefault(),
		strict: f.Strict,
		header: f.Header,
		subset: append([]int(nil), f.Subset...),
	}
	if len(f.ColNames) > 0 {
		p.names = newColumnNames(f.ColNames)
		p.namesExternal = true
		p.header = -1
	}
	p.resetFieldState()
	return p
}

// OnBadRow installs the hook invoked for malformed, dropped rows in
// non-strict mode.
func (p *Parser) OnBadRow(fn BadRowObserver) { p.onBadRow = fn }

// ColumnNames returns the parser's installed column names, or nil if none
// have been discovered or supplied yet.
func (p *Parser) ColumnNames() *ColumnNames {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	return p.names
}

func (p *Parser) resetFieldState() {
	p.rowBuf = p.rowBuf[:0]
	p.splits = p.splits[:0]
	p.fieldStart = 0
	p.lastWasDelim = true // start-of-record counts as "after a delimiter"
	p.quoteEscape = false
}

// Feed consumes chunk in its entirety, advancing the parser's state and
// appending any completed rows to the output queue.
func (p *Parser) Feed(chunk []byte) error {
	i := 0
	n := len(chunk)

	if n == 0 {
		return nil
	}

	// Resolve carries from the previous chunk using this chunk's first byte.
	if p.pendingCR {
		p.pendingCR = false
		if chunk[0] == '\n' {
			i++
		}
	}
	if i < n && p.pendingQuoteLookahead {
		p.pendingQuoteLookahead = false
		switch chunk[i] {
		case p.delim, '\r', '\n':
			p.quoteEscape = false
			// fall through: byte i is reprocessed below under quoteEscape=false
		case p.quote:
			p.appendByte(p.quote)
			i++
		default:
			p.appendByte(p.quote)
			// byte i is reprocessed below, still inside quoteEscape
		}
	}

	for i < n {
		b := chunk[i]

		if p.quoteEscape {
			switch b {
			case p.quote:
				if i+1 < n {
					switch chunk[i+1] {
					case p.delim, '\r', '\n':
						p.quoteEscape = false
					case p.quote:
						p.appendByte(p.quote)
						i++
					default:
						p.appendByte(p.quote)
					}
				} else {
					p.pendingQuoteLookahead = true
				}
				i++
			default:
				p.appendByte(b)
				i++
			}
			continue
		}

		switch b {
		case p.delim:
			p.commitField()
			i++
		case p.quote:
			if p.lastWasDelim {
				p.quoteEscape = true
			}
			i++
		case '\r':
			if i+1 < n {
				if chunk[i+1] == '\n' {
					i++
				}
			} else {
				p.pendingCR = true
			}
			if err := p.finalizeRecord(); err != nil {
				return err
			}
			i++
		case '\n':
			if err := p.finalizeRecord(); err != nil {
				return err
			}
			i++
		default:
			p.appendByte(b)
			i++
		}
	}

	return nil
}

// appendByte appends b to the in-flight field buffer, growing rowBuf with
// an overflow-checked capacity doubling so pathological inputs fail loudly
// rather than wrapping a negative capacity.
func (p *Parser) appendByte(b byte) {
	if len(p.rowBuf) == cap(p.rowBuf) {
		newCap, ok := overflow.Mul(max(cap(p.rowBuf), 64), 2)
		if !ok {
			newCap = cap(p.rowBuf) + 64
		}
		grown := make([]byte, len(p.rowBuf), newCap)
		copy(grown, p.rowBuf)
		p.rowBuf = grown
	}
	p.rowBuf = append(p.rowBuf, b)
	p.lastWasDelim = false
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// commitField closes the in-flight field as a new split point.
func (p *Parser) commitField() {
	p.splits = append(p.splits, len(p.rowBuf))
	p.fieldStart = len(p.rowBuf)
	p.lastWasDelim = true
}

// EndFeed finalizes any in-flight record. After it returns, the parser is
// drained of input (though PopRow may still have buffered rows).
func (p *Parser) EndFeed() error {
	if p.pendingQuoteLookahead {
		// Stream ended right after a trailing quote: treat it as closing
		// the quoted field, matching "quotedEOF" behavior.
		p.pendingQuoteLookahead = false
		p.quoteEscape = false
	}
	if len(p.rowBuf) == p.fieldStart && len(p.splits) == 0 && p.fieldStart == 0 {
		// Nothing buffered at all: no trailing partial record to flush.
		return nil
	}
	return p.finalizeRecord()
}

// finalizeRecord implements spec.md §4.3's record finalization steps.
func (p *Parser) finalizeRecord() error {
	p.commitField()
	fieldCount := len(p.splits)

	// Step 2: exactly one field short of the known column count gets an
	// implicit empty trailing field (files omitting a trailing delimiter).
	if p.names != nil && fieldCount+1 == p.names.Len() {
		p.splits = append(p.splits, len(p.rowBuf))
		fieldCount++
	}

	rowNum := int(p.rowNum.Load())
	defer func() {
		p.rowNum.Add(1)
		p.resetFieldState()
	}()

	switch {
	case p.header >= 0 && rowNum < p.header:
		// Pre-header content: discarded, but still counted.
		return nil
	case p.header >= 0 && rowNum == p.header:
		if !p.namesExternal {
			p.outMu.Lock()
			p.names = newColumnNames(decodeFields(p.rowBuf, p.splits))
			p.outMu.Unlock()
		}
		return nil
	default:
		if p.names == nil {
			// No header configured and none supplied: the first row's
			// width defines the column count implicitly.
			p.outMu.Lock()
			p.names = newColumnNames(make([]string, fieldCount))
			p.outMu.Unlock()
		}
		if fieldCount != p.names.Len() {
			fields := decodeFields(p.rowBuf, p.splits)
			if p.strict {
				return wrapError(KindMalformedRow, "expected fields, got different count", nil)
			}
			if p.onBadRow != nil {
				p.onBadRow(fields, rowNum)
			}
			return nil
		}
		row := newRow(string(p.rowBuf), p.splits, p.names)
		if len(p.subset) > 0 {
			if p.subsetNames == nil {
				p.subsetNames = subsetColumnNames(p.names, p.subset)
			}
			row = subsetRow(row, p.subset, p.subsetNames)
		}
		p.outMu.Lock()
		p.out = append(p.out, row)
		p.outMu.Unlock()
		p.correctRows.Add(1)
		return nil
	}
}

func decodeFields(buf []byte, splits []int) []string {
	out := make([]string, len(splits))
	start := 0
	for i, end := range splits {
		out[i] = string(buf[start:end])
		start = end
	}
	return out
}

// subsetColumnNames projects names onto the ordered column indices in idxs,
// for use as the shared ColumnNames of every row a subset-configured Parser
// emits. Built once per Parser and cached, since it is the same for every
// row regardless of that row's own content.
func subsetColumnNames(names *ColumnNames, idxs []int) *ColumnNames {
	allNames := names.Names()
	out := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		if idx >= 0 && idx < len(allNames) {
			out = append(out, allNames[idx])
		} else {
			out = append(out, "")
		}
	}
	return newColumnNames(out)
}

// subsetRow projects row onto the ordered column indices in idxs, copying
// the selected field texts into a new contiguous buffer (subsetting is not
// zero-copy, since the retained columns need not be contiguous or ordered
// the same way in the source row). names is the subset's shared
// ColumnNames, built once by subsetColumnNames rather than per row.
func subsetRow(row Row, idxs []int, names *ColumnNames) Row {
	var buf []byte
	splits := make([]int, 0, len(idxs))
	for _, idx := range idxs {
		buf = append(buf, row.Text(idx)...)
		splits = append(splits, len(buf))
	}
	return newRow(string(buf), splits, names)
}

// PopRow removes and returns the oldest buffered row, in input order.
func (p *Parser) PopRow() (Row, bool) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	if len(p.out) == 0 {
		return Row{}, false
	}
	row := p.out[0]
	p.out = p.out[1:]
	return row, true
}

// Len reports how many rows are currently buffered for PopRow.
func (p *Parser) Len() int {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	return len(p.out)
}
