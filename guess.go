package swiftdsv

import "go.uber.org/zap"

// guessCandidates is the small fixed set of delimiters the guesser tries,
// matching spec.md §4.5 and the original engine's CSVGuesser.
var guessCandidates = []byte{',', '|', '\t', ';', '^'}

// guessSampleRows caps the accepted-row count stage 1 scores per candidate.
// Neither stage stops parsing at this many rows: both parse the whole sample
// they are given, and stage 2's tallies are not capped.
const guessSampleRows = 100

// GuessFormat sniffs sample, the leading bytes of a source, and returns the
// Format (delimiter and header row) that best explains it. Callers
// typically pass the first chunk or so read from the file; GuessFormat
// itself performs no I/O.
func GuessFormat(sample []byte) Format {
	log := logger()

	type candidate struct {
		delim   byte
		rows    int
		columns int
	}

	var best candidate
	for _, d := range guessCandidates {
		p := NewParser(Format{Delim: d, Header: 0})
		_ = p.Feed(sample)
		_ = p.EndFeed()

		rows := p.CorrectRows()
		if rows > guessSampleRows {
			rows = guessSampleRows
		}
		columns := p.ColumnNames().Len()

		log.Debug("format guess stage 1 candidate",
			zap.String("delim", string(d)), zap.Int("rows", rows), zap.Int("columns", columns))

		if rows > best.rows || (rows == best.rows && columns > best.columns) {
			best = candidate{delim: d, rows: rows, columns: columns}
		}
	}

	if best.rows > 10 && best.columns > 2 {
		log.Debug("format guess stage 1 winner", zap.String("delim", string(best.delim)))
		return Format{Delim: best.delim, Header: 0}
	}

	return guessWithLeadingComments(sample, log)
}

// guessWithLeadingComments implements spec.md §4.5's stage 2: for files
// whose body is preceded by comment lines, stage 1's header-at-row-0
// assumption misclassifies the real body as bad rows. Tallying bad-row
// field counts recovers both the true delimiter and true header row.
func guessWithLeadingComments(sample []byte, log *zap.Logger) Format {
	type tally struct {
		fieldCount int
		count      int
		firstRow   int
	}

	var bestDelim byte
	var bestTally tally

	for _, d := range guessCandidates {
		counts := map[int]*tally{}

		p := NewParser(Format{Delim: d, Header: 0})
		p.OnBadRow(func(fields []string, rowNum int) {
			t, ok := counts[len(fields)]
			if !ok {
				t = &tally{fieldCount: len(fields), firstRow: rowNum}
				counts[len(fields)] = t
			}
			t.count++
		})
		_ = p.Feed(sample)
		_ = p.EndFeed()

		var mode tally
		for _, t := range counts {
			if t.count > mode.count {
				mode = *t
			}
		}

		log.Debug("format guess stage 2 candidate",
			zap.String("delim", string(d)), zap.Int("mode_field_count", mode.fieldCount),
			zap.Int("mode_tally", mode.count), zap.Int("accepted", p.CorrectRows()))

		if mode.count > bestTally.count && mode.count > p.CorrectRows() {
			bestDelim = d
			bestTally = mode
		}
	}

	if bestTally.count == 0 {
		// No candidate showed a rejected-body signal: fall back to comma,
		// header at row 0, matching the conservative default when nothing
		// in the sample clearly beats it.
		return Format{Delim: ',', Header: 0}
	}

	log.Debug("format guess stage 2 winner",
		zap.String("delim", string(bestDelim)), zap.Int("header", bestTally.firstRow))
	return Format{Delim: bestDelim, Header: bestTally.firstRow}
}
