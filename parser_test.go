package swiftdsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainParser(t *testing.T, p *Parser) []Row {
	t.Helper()
	var rows []Row
	for {
		row, ok := p.PopRow()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

func feedWhole(t *testing.T, p *Parser, data string) []Row {
	t.Helper()
	require.NoError(t, p.Feed([]byte(data)))
	require.NoError(t, p.EndFeed())
	return drainParser(t, p)
}

func TestParserBasicHeaderAndRows(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: 0})
	rows := feedWhole(t, p, "A,B,C\r\n123,234,345\r\n1,2,3\r\n1,2,3")

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A", "B", "C"}, p.ColumnNames().Names())
	assert.Equal(t, "123", rows[0].Text(0))

	kind, mag, overflow := Classify(rows[0].Text(0), true)
	assert.Equal(t, KindInteger, kind)
	assert.False(t, overflow)
	assert.Equal(t, "123", mag.String())
}

func TestParserChunkBoundaryInMiddleOfQuote(t *testing.T) {
	data := `"quoted,field",123` + "\n"
	for split := 0; split <= len(data); split++ {
		p := NewParser(Format{Delim: ',', Header: NoHeader})
		require.NoError(t, p.Feed([]byte(data[:split])))
		require.NoError(t, p.Feed([]byte(data[split:])))
		require.NoError(t, p.EndFeed())
		rows := drainParser(t, p)
		require.Lenf(t, rows, 1, "split at %d", split)
		assert.Equalf(t, "quoted,field", rows[0].Text(0), "split at %d", split)
		assert.Equalf(t, "123", rows[0].Text(1), "split at %d", split)
	}
}

func TestParserChunkBoundaryAtCRLF(t *testing.T) {
	data := "a,b\r\nc,d\r\n"
	for split := 0; split <= len(data); split++ {
		p := NewParser(Format{Delim: ',', Header: NoHeader})
		require.NoError(t, p.Feed([]byte(data[:split])))
		require.NoError(t, p.Feed([]byte(data[split:])))
		require.NoError(t, p.EndFeed())
		rows := drainParser(t, p)
		require.Lenf(t, rows, 2, "split at %d", split)
	}
}

func TestParserEmbeddedDoubledQuote(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: NoHeader})
	rows := feedWhole(t, p, `"she said ""hi""",2`+"\n")
	require.Len(t, rows, 1)
	assert.Equal(t, `she said "hi"`, rows[0].Text(0))
}

func TestParserQuotedEOF(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: NoHeader})
	rows := feedWhole(t, p, `"quoted"`)
	require.Len(t, rows, 1)
	assert.Equal(t, "quoted", rows[0].Text(0))
}

func TestParserOneFieldShortPadsEmpty(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: 0})
	rows := feedWhole(t, p, "A,B,C\n1,2,3\n4,5\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[1].Text(2))
}

func TestParserStrictRejectsMalformedRow(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: 0, Strict: true})
	require.NoError(t, p.Feed([]byte("A,B,C\n1,2,3\n")))
	err := p.Feed([]byte("4,5\n"))
	require.Error(t, err)
	var dsvErr *Error
	require.ErrorAs(t, err, &dsvErr)
	assert.Equal(t, KindMalformedRow, dsvErr.Kind)
}

func TestParserNonStrictDropsBadRowAndInvokesHook(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: 0})
	var gotFields []string
	var gotRow int
	p.OnBadRow(func(fields []string, rowNum int) {
		gotFields = fields
		gotRow = rowNum
	})
	rows := feedWhole(t, p, "A,B,C\n1,2,3\n4,5\n6,7,8\n")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"4", "5"}, gotFields)
	assert.Equal(t, 2, gotRow)
}

func TestParserSubset(t *testing.T) {
	p := NewParser(Format{Delim: ',', Header: 0, Subset: []int{2, 0}})
	rows := feedWhole(t, p, "A,B,C\n1,2,3\n")
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].Text(0))
	assert.Equal(t, "1", rows[0].Text(1))
}

func TestParserByteAtATimeFeedMatchesWholeFeed(t *testing.T) {
	data := "A,B\n1,\"x,y\"\n2,3\n"
	whole := NewParser(Format{Delim: ',', Header: 0})
	wantRows := feedWhole(t, whole, data)

	bytewise := NewParser(Format{Delim: ',', Header: 0})
	for i := 0; i < len(data); i++ {
		require.NoError(t, bytewise.Feed([]byte{data[i]}))
	}
	require.NoError(t, bytewise.EndFeed())
	gotRows := drainParser(t, bytewise)

	require.Equal(t, len(wantRows), len(gotRows))
	for i := range wantRows {
		assert.Equal(t, wantRows[i].ToSlice(), gotRows[i].ToSlice())
	}
}
