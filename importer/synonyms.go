// Package importer decodes CSV and JSON profile files into typed rows. It
// never touches the store; services.ImportService makes the write decisions.
package importer

import "strings"

// Synonym lists the accepted header spellings of one canonical field, in
// priority order.
type Synonym struct {
	Field   string
	Headers []string
}

// HeaderSynonyms is ordered: when a header row carries several spellings of
// a field, the earliest synonym wins.
var HeaderSynonyms = []Synonym{
	{Field: "name", Headers: []string{"name", "full name", "model name", "actor", "actress", "displayname"}},
	{Field: "aka", Headers: []string{"aka", "also known as", "also_known_as", "other names"}},
	{Field: "profession", Headers: []string{"profession", "job", "occupation"}},
	{Field: "age", Headers: []string{"age"}},
	{Field: "dob", Headers: []string{"dob", "date of birth", "birthdate", "birthday"}},
	{Field: "birthplace", Headers: []string{"birthplace", "place of birth"}},
	{Field: "hometown", Headers: []string{"hometown", "residence", "lives in"}},
	{Field: "marital_status", Headers: []string{"marital status", "marital_status", "married"}},
	{Field: "children", Headers: []string{"children", "has children"}},
	{Field: "nationality", Headers: []string{"nationality", "country"}},
	{Field: "religion", Headers: []string{"religion"}},
	{Field: "ethnicity", Headers: []string{"ethnicity"}},
	{Field: "folder_name", Headers: []string{"folder", "folder_name", "media folder", "media_folder"}},
}

// UpdatableFields are written when an update-mode import finds an existing
// record. Name is never overwritten.
var UpdatableFields = []string{
	"aka", "profession", "age", "dob", "birthplace", "hometown",
	"marital_status", "children", "nationality", "religion", "ethnicity", "folder_name",
}

// NormalizeHeader trims and lowercases a header cell. A leading byte order
// mark is dropped as well.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// HeaderMap maps a canonical field to the column indexes that may carry it,
// in synonym priority order.
type HeaderMap map[string][]int

// Has reports whether any column maps to field.
func (m HeaderMap) Has(field string) bool {
	return len(m[field]) > 0
}

// ResolveHeaders matches a header row against HeaderSynonyms. Every synonym
// present contributes a column, so a row whose preferred column is blank can
// still take the value from a later synonym.
func ResolveHeaders(headers []string) HeaderMap {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	m := HeaderMap{}
	for _, syn := range HeaderSynonyms {
		for _, h := range syn.Headers {
			if i, ok := index[h]; ok {
				m[syn.Field] = append(m[syn.Field], i)
			}
		}
	}
	return m
}
