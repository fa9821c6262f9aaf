// Package source reads the record document the tree is built from. Documents
// are JSON (a bare array of records, or an object wrapping one) or spreadsheet
// workbooks whose header row names the fields.
package source

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"lineage/internal/genealogy/tree"
)

// Field names shared by JSON keys and workbook headers. Matching is case-insensitive.
const (
	FieldName         = "name"
	FieldID           = "id"
	FieldType         = "type"
	FieldDate         = "date"
	FieldPartner      = "partner"
	FieldPartnerDates = "partner_dates"
	FieldParent1      = "parent1"
	FieldParent2      = "parent2"
	FieldParentID     = "parent_id"
)

// wrapperKeys are the conventional fields an object may wrap its records in.
var wrapperKeys = []string{"records", "data", "rows"}

// Decode parses a JSON record document.
func Decode(r io.Reader) ([]tree.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("decode json: %v", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		found := false
		for _, key := range wrapperKeys {
			if arr, ok := lookup(v, key).([]any); ok {
				items, found = arr, true
				break
			}
		}
		if !found {
			return nil, malformed("object has no %s array", strings.Join(wrapperKeys, "/"))
		}
	default:
		return nil, malformed("document is neither an array nor an object")
	}

	records := make([]tree.Record, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, malformed("record %d is not an object", i)
		}
		records = append(records, toRecord(fields))
	}
	return records, nil
}

// DecodeBytes dispatches on content: workbooks are zip archives, anything else
// is treated as JSON.
func DecodeBytes(body []byte) ([]tree.Record, error) {
	if isWorkbook(body) {
		return DecodeWorkbook(bytes.NewReader(body))
	}
	return Decode(bytes.NewReader(body))
}

func isWorkbook(body []byte) bool {
	return bytes.HasPrefix(body, []byte("PK\x03\x04"))
}

func toRecord(fields map[string]any) tree.Record {
	return tree.Record{
		Name:         text(lookup(fields, FieldName)),
		AnchorID:     NormalizeID(lookup(fields, FieldID)),
		Type:         text(lookup(fields, FieldType)),
		Date:         lookup(fields, FieldDate),
		Partner:      text(lookup(fields, FieldPartner)),
		PartnerDates: text(lookup(fields, FieldPartnerDates)),
		ParentHint1:  text(lookup(fields, FieldParent1)),
		ParentHint2:  text(lookup(fields, FieldParent2)),
		ParentID:     NormalizeID(lookup(fields, FieldParentID)),
	}
}

// lookup finds key case-insensitively, preferring an exact match.
func lookup(fields map[string]any, key string) any {
	if v, ok := fields[key]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// NormalizeID renders an id cell as a string: integral numbers lose their
// fraction ("12.0" becomes "12"), strings are trimmed, anything else is absent.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		if f, err := id.Float64(); err == nil {
			return formatNumber(f)
		}
		return strings.TrimSpace(id.String())
	case float64:
		return formatNumber(id)
	case int:
		return strconv.Itoa(id)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return formatNumber(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
