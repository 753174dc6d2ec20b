package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Tonisark/ActressManager/models"
)

// ErrEmptyFile is returned when an import file has no header or no data.
var ErrEmptyFile = errors.New("import file is empty")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// DecodeCSV reads a header row plus data rows. Headers are matched through
// HeaderSynonyms; unknown columns are ignored. Rows may be shorter or longer
// than the header.
//
// A row's name is the first non-empty name-synonym cell, falling back to
// the first non-empty cell of the row. Rows without any value get Err set.
func DecodeCSV(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	hm := ResolveHeaders(headers)

	batch := &Batch{Source: "csv", Headers: headers}
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		batch.Rows = append(batch.Rows, decodeCSVRecord(line, record, hm))
	}
	return batch, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// firstValue returns the first non-empty cell among cols.
func firstValue(record []string, cols []int) string {
	for _, i := range cols {
		if v := cell(record, i); v != "" {
			return v
		}
	}
	return ""
}

func decodeCSVRecord(line int, record []string, hm HeaderMap) Row {
	row := Row{Line: line}

	name := firstValue(record, hm["name"])
	if name == "" {
		for i := range record {
			if v := cell(record, i); v != "" {
				name = v
				break
			}
		}
	}
	if name == "" {
		row.Err = "row has no name"
		return row
	}
	_ = row.set("name", name)

	for _, syn := range HeaderSynonyms {
		if syn.Field == "name" || !hm.Has(syn.Field) {
			continue
		}
		// an unparseable age is left unset
		_ = row.set(syn.Field, firstValue(record, hm[syn.Field]))
	}
	return row
}

// DecodeJSON reads an array of objects keyed by canonical column names.
// Strings, numbers, booleans and null are accepted; age may also be a
// numeric string. Keys that are not canonical columns are ignored.
func DecodeJSON(r io.Reader) (*Batch, error) {
	dec := json.NewDecoder(stripBOM(r))
	dec.UseNumber()

	var items []map[string]interface{}
	if err := dec.Decode(&items); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to decode JSON import: %w", err)
	}

	batch := &Batch{Source: "json"}
	for _, f := range models.CanonicalFields {
		batch.Headers = append(batch.Headers, f.Column)
	}
	for i, item := range items {
		batch.Rows = append(batch.Rows, decodeJSONItem(i+1, item))
	}
	return batch, nil
}

func decodeJSONItem(line int, item map[string]interface{}) Row {
	row := Row{Line: line}
	var errs []string
	for _, f := range models.CanonicalFields {
		v, ok := item[f.Column]
		if !ok {
			continue
		}
		raw, err := jsonText(v)
		if err == nil {
			err = row.set(f.Column, raw)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f.Column, err))
		}
	}
	switch {
	case len(errs) > 0:
		row.Err = strings.Join(errs, "; ")
	case !row.HasName():
		row.Err = "row has no name"
	}
	return row
}

// jsonText renders a decoded JSON scalar as the text fieldSetters expect.
func jsonText(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		f, err := t.Float64()
		if err != nil {
			return "", fmt.Errorf("invalid number %q", t.String())
		}
		if f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10), nil
		}
		return t.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
