package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestParseCSV_Windows1250PuntoYComa(t *testing.T) {
	raw := "ID;Denumire;Chelt_Elig_Baza\nb-1;Construcţie drum;1.234,50\n\n"
	encoded, _, err := transform.String(charmap.Windows1250.NewEncoder(), raw)
	require.NoError(t, err)

	rows, err := parseCSV(transform.NewReader(strings.NewReader(encoded), charmap.Windows1250.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b-1", rows[0]["id"])
	assert.Equal(t, "Construcţie drum", rows[0]["denumire"])
	assert.Equal(t, "1.234,50", rows[0]["chelt_elig_baza"])
}

func TestSQLValue_Conversiones(t *testing.T) {
	cases := []struct {
		kind kind
		raw  string
		want string
	}{
		{kindText, "Comuna O'Neil", "'Comuna O''Neil'"},
		{kindInt, "", "0"},
		{kindMoney, "1.234,50", "1234.5"},
		{kindMoney, "", "0"},
		{kindOptDecimal, "", "NULL"},
		{kindOptDecimal, "0,2", "0.2"},
		{kindDate, "31.12.2025", "'2025-12-31'"},
		{kindDate, "", "NULL"},
	}
	for _, c := range cases {
		got, err := sqlValue(c.kind, c.raw)
		require.NoError(t, err, c.raw)
		assert.Equal(t, c.want, got, c.raw)
	}

	_, err := sqlValue(kindDate, "31-31-2025")
	assert.Error(t, err)
	_, err = sqlValue(kindMoney, "abc")
	assert.Error(t, err)
}

func TestWriteTable_UpsertPorID(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	rows := []map[string]string{{
		"id": "F1", "cod": "PRJ-1", "denumire": "Proyecto", "aport_coef": "0,2",
		"aport_valoare": "100", "data_semnare": "2025-01-15",
	}}

	n, err := writeTable(w, tables[0], rows)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, n)

	sql := buf.String()
	assert.Contains(t, sql, "INSERT INTO funding_projects (id, code, name,")
	assert.Contains(t, sql, "'F1', 'PRJ-1', 'Proyecto'")
	assert.Contains(t, sql, "0.2, 100, '2025-01-15', NULL)")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code")
}

func TestWriteTable_IDVacio_Error(t *testing.T) {
	w := bufio.NewWriter(&bytes.Buffer{})
	_, err := writeTable(w, tables[0], []map[string]string{{"cod": "X"}})
	assert.ErrorContains(t, err, "id vacío")
}
