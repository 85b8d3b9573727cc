package swiftdsv

import (
	"io"
	"reflect"
	"testing"
)

func readAllPushMode(t *testing.T, format Format, input string) [][]string {
	t.Helper()
	r := OpenFormat(format)
	if err := r.Feed([]byte(input)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := r.EndFeed(); err != nil {
		t.Fatalf("EndFeed: %v", err)
	}

	var got [][]string
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRow: %v", err)
		}
		got = append(got, row.ToSlice())
	}
	return got
}

func TestReaderPushModeRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		format Format
		want   [][]string
	}{
		{
			name:   "basicRecords",
			input:  "one,two\nthree,four\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"one", "two"},
				{"three", "four"},
			},
		},
		{
			name:   "finalRecordWithoutTerminator",
			input:  "alpha,beta,gamma",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"alpha", "beta", "gamma"},
			},
		},
		{
			name:   "windowsLineEndings",
			input:  "a,b\r\nc,d\r\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"a", "b"},
				{"c", "d"},
			},
		},
		{
			name:   "quotedComma",
			input:  "a,\"b,b\",c\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"a", "b,b", "c"},
			},
		},
		{
			name:   "escapedQuote",
			input:  "a,\"b\"\"c\",d\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"a", "b\"c", "d"},
			},
		},
		{
			name:   "embeddedNewline",
			input:  "a,\"b\nc\",d\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"a", "b\nc", "d"},
			},
		},
		{
			name:   "emptyFields",
			input:  ",,\n",
			format: Format{Delim: ',', Header: NoHeader},
			want: [][]string{
				{"", "", ""},
			},
		},
		{
			name:   "customDelimiter",
			input:  "left;right\nup;down\n",
			format: Format{Delim: ';', Header: NoHeader},
			want: [][]string{
				{"left", "right"},
				{"up", "down"},
			},
		},
		{
			name:   "header row is not emitted as data",
			input:  "A,B\n1,2\n3,4\n",
			format: Format{Delim: ',', Header: 0},
			want: [][]string{
				{"1", "2"},
				{"3", "4"},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := readAllPushMode(t, tc.format, tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReaderColumnNamesFromHeader(t *testing.T) {
	r := OpenFormat(Format{Delim: ',', Header: 0})
	if err := r.Feed([]byte("id,name\n1,a\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := r.EndFeed(); err != nil {
		t.Fatalf("EndFeed: %v", err)
	}
	if _, err := r.ReadRow(); err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	names := r.ColumnNames().Names()
	want := []string{"id", "name"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestReaderIteratorAPI(t *testing.T) {
	r := OpenFormat(Format{Delim: ',', Header: NoHeader})
	if err := r.Feed([]byte("1,2\n3,4\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if err := r.EndFeed(); err != nil {
		t.Fatalf("EndFeed: %v", err)
	}

	var rows [][]string
	for r.Next() {
		rows = append(rows, r.Row().ToSlice())
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	want := [][]string{{"1", "2"}, {"3", "4"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestReaderCloseIdempotent(t *testing.T) {
	r := OpenFormat(Format{Delim: ',', Header: NoHeader})
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
