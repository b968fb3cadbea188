package feed_test

import (
	"io"
	"strings"
	"testing"

	"github.com/shashiranjanraj/vastra/pkg/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, fr *feed.Reader) []feed.Row {
	t.Helper()
	var rows []feed.Row
	for {
		row, err := fr.Next()
		if err == io.EOF {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestReaderCSV(t *testing.T) {
	src := "SKU,Name,Price\nABC-1,Mini Dress,19.99\nABC-2,Maxi Dress,29.99\n"
	fr, err := feed.NewReader(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name", "price"}, fr.Columns())

	rows := readAll(t, fr)
	require.Len(t, rows, 2)
	assert.Equal(t, "ABC-1", rows[0].Get("sku"))
	assert.Equal(t, "Mini Dress", rows[0].Get("Name"), "lookup is case-insensitive")
	assert.Equal(t, "29.99", rows[1].Get("PRICE"))
	assert.Equal(t, 2, rows[0].Line)
}

func TestReaderStripsLeadingBOM(t *testing.T) {
	src := "\uFEFFsku,name\nABC-1,Mini Dress\n"
	fr, err := feed.NewReader(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "name"}, fr.Columns())

	rows := readAll(t, fr)
	require.Len(t, rows, 1)
	assert.Equal(t, "ABC-1", rows[0].Get("sku"), "first column resolves despite the exporter BOM")
}

func TestReaderSniffsTabsAndPipes(t *testing.T) {
	tab := "sku\tname\nA\tOne\n"
	fr, err := feed.NewReader(strings.NewReader(tab))
	require.NoError(t, err)
	rows := readAll(t, fr)
	require.Len(t, rows, 1)
	assert.Equal(t, "One", rows[0].Get("name"))

	pipe := "sku|name\nB|Two\n"
	fr, err = feed.NewReader(strings.NewReader(pipe))
	require.NoError(t, err)
	rows = readAll(t, fr)
	require.Len(t, rows, 1)
	assert.Equal(t, "Two", rows[0].Get("name"))
}

func TestReaderSkipsBlankLinesAndShortRows(t *testing.T) {
	src := "sku,name,price\n\nA,One\n  , , \nB,Two,9.99\n"
	fr, err := feed.NewReader(strings.NewReader(src))
	require.NoError(t, err)

	rows := readAll(t, fr)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Get("price"), "short row reads missing column as empty")
	assert.Equal(t, "9.99", rows[1].Get("price"))
}

func TestReaderMissingColumn(t *testing.T) {
	fr, err := feed.NewReader(strings.NewReader("sku,name\nA,One\n"))
	require.NoError(t, err)

	rows := readAll(t, fr)
	assert.False(t, rows[0].Has("price"))
	assert.Equal(t, "", rows[0].Get("price"))
}

func TestReaderEmptySource(t *testing.T) {
	_, err := feed.NewReader(strings.NewReader(""))
	assert.ErrorIs(t, err, feed.ErrNoHeader)

	_, err = feed.NewReader(strings.NewReader(" , ,\n"))
	assert.ErrorIs(t, err, feed.ErrNoHeader)
}

func TestRowMap(t *testing.T) {
	fr, err := feed.NewReader(strings.NewReader("sku,name\nA, One \n"))
	require.NoError(t, err)

	rows := readAll(t, fr)
	assert.Equal(t, map[string]string{"sku": "A", "name": "One"}, rows[0].Map())
}
