package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lineage/internal/genealogy/tree"
	dErrors "lineage/pkg/domain-errors"
)

const bareDocument = `[
	{"name": "Johann Weber", "id": 7, "type": "Birth", "date": 1850},
	{"name": "Fritz Weber", "id": "8", "type": "birth", "date": 12000, "parent_id": 7.0},
	{"Name": "Lina", "Type": "marriage", "Partner": "Otto", "Partner_Dates": "*1901", "Parent1": "Fritz", "parent2": ""}
]`

func TestDecodeBareArray(t *testing.T) {
	records, err := Decode(strings.NewReader(bareDocument))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Johann Weber", records[0].Name)
	assert.Equal(t, "7", records[0].AnchorID)
	assert.Equal(t, json.Number("1850"), records[0].Date)

	assert.Equal(t, "8", records[1].AnchorID)
	assert.Equal(t, "7", records[1].ParentID)

	assert.Equal(t, tree.Record{
		Name: "Lina", Type: "marriage", Partner: "Otto", PartnerDates: "*1901", ParentHint1: "Fritz",
	}, records[2])
}

func TestDecodeWrappedDocument(t *testing.T) {
	for _, key := range []string{"records", "data", "rows"} {
		t.Run(key, func(t *testing.T) {
			doc := `{"` + key + `": [{"name": "Eva"}], "generated": "2024-01-01"}`
			records, err := Decode(strings.NewReader(doc))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Eva", records[0].Name)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":            `<html>`,
		"scalar":              `42`,
		"object without list": `{"persons": 3}`,
		"non object record":   `[{"name": "Eva"}, "Adam"]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway))
		})
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "12", NormalizeID(json.Number("12")))
	assert.Equal(t, "12", NormalizeID(json.Number("12.0")))
	assert.Equal(t, "12.5", NormalizeID(12.5))
	assert.Equal(t, "0", NormalizeID(0.0))
	assert.Equal(t, "a-1", NormalizeID(" a-1 "))
	assert.Equal(t, "", NormalizeID(nil))
	assert.Equal(t, "", NormalizeID(true))
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeWorkbook(t *testing.T) {
	body := workbook(t, [][]any{
		{"Name", "ID", "Type", "Date", "Partner", "Parent_ID"},
		{"Johann Weber", 7, "birth", 1850, "", ""},
		{},
		{"Fritz Weber", 8, "birth", 44197, "", 7},
		{"Fritz Weber", 8, "marriage", "um 1905", "Ida", ""},
	})

	records, err := DecodeBytes(body)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "7", records[0].AnchorID)
	assert.Equal(t, "7", records[1].ParentID)
	assert.Equal(t, json.Number("44197"), records[1].Date)
	assert.Equal(t, "um 1905", records[2].Date)

	ft := tree.Build(records)
	fritz, ok := ft.Person("8")
	require.True(t, ok)
	assert.Equal(t, "2021-01-01", fritz.Events()[0].Date)
	assert.Len(t, fritz.Events(), 2)
	assert.Equal(t, "Johann Weber", ft.Root().Name())
}

func TestDecodeWorkbookWithoutNameColumn(t *testing.T) {
	body := workbook(t, [][]any{{"Vorname", "Jahr"}, {"Eva", 1900}})
	_, err := DecodeBytes(body)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestHTTPFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a successful response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"records": [{"name": "Eva", "date": 1900}]}`))
		}))
		defer srv.Close()

		records, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Eva", records[0].Name)
	})

	t.Run("serves workbooks too", func(t *testing.T) {
		body := workbook(t, [][]any{{"name"}, {"Eva"}})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(body)
		}))
		defer srv.Close()

		records, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("non success status is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(ctx)
		require.Error(t, err)
		assert.True(t, IsUnavailable(err))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("transport failure is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewHTTPFetcher(url, time.Second).Fetch(ctx)
		require.Error(t, err)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("html body is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		_, err := NewHTTPFetcher(srv.URL, time.Second).Fetch(ctx)
		require.Error(t, err)
		assert.True(t, IsMalformed(err))
		assert.False(t, IsUnavailable(err))
	})
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.json")
	require.NoError(t, os.WriteFile(path, []byte(bareDocument), 0o600))

	records, err := NewFileFetcher(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = NewFileFetcher(filepath.Join(dir, "missing.json")).Fetch(context.Background())
	assert.True(t, IsUnavailable(err))

	xlsx := filepath.Join(dir, "family.xlsx")
	require.NoError(t, os.WriteFile(xlsx, workbook(t, [][]any{{"name"}, {"Eva"}, {"Adam"}}), 0o600))
	records, err = NewFileFetcher(xlsx).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
