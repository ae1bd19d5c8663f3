package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type kind int

const (
	kindText kind = iota
	kindInt
	kindMoney      // NOT NULL, vacío = 0
	kindOptDecimal // NULL si vacío
	kindDate       // NULL si vacío
)

type column struct {
	header string // encabezado en el CSV
	name   string // columna SQL
	kind   kind
}

type table struct {
	file     string
	name     string
	required bool
	columns  []column // la primera es siempre id
}

// tables en orden de carga (las líneas referencian al proyecto).
var tables = []table{
	{file: "projects.csv", name: "funding_projects", required: true, columns: []column{
		{"id", "id", kindText},
		{"cod", "code", kindText},
		{"denumire", "name", kindText},
		{"beneficiar", "beneficiary", kindText},
		{"cui", "beneficiary_tax_id", kindText},
		{"status", "status", kindText},
		{"aport_coef", "contribution_coefficient", kindOptDecimal},
		{"aport_valoare", "contribution_value", kindMoney},
		{"data_semnare", "signing_date", kindDate},
		{"data_final", "end_date", kindDate},
	}},
	{file: "budget_lines.csv", name: "funding_budget_lines", columns: []column{
		{"id", "id", kindText},
		{"project_id", "funding_project_id", kindText},
		{"pozitie", "position", kindInt},
		{"nr_crt", "number", kindText},
		{"capitol", "chapter", kindText},
		{"subcapitol", "subchapter", kindText},
		{"denumire", "name", kindText},
		{"chelt_elig_baza", "eligible_base", kindMoney},
		{"chelt_elig_tva", "eligible_vat", kindMoney},
		{"chelt_neelig_baza", "non_eligible_base", kindMoney},
		{"chelt_neelig_tva", "non_eligible_vat", kindMoney},
	}},
	{file: "activities.csv", name: "funding_activities", columns: []column{
		{"id", "id", kindText},
		{"project_id", "funding_project_id", kindText},
		{"nr", "sequence", kindInt},
		{"denumire", "name", kindText},
		{"data_start", "date_start", kindDate},
		{"data_final", "date_end", kindDate},
	}},
	{file: "acquisitions.csv", name: "funding_acquisitions", columns: []column{
		{"id", "id", kindText},
		{"project_id", "funding_project_id", kindText},
		{"nr", "sequence", kindInt},
		{"cod", "code", kindText},
		{"denumire", "name", kindText},
		{"data_start", "date_start", kindDate},
		{"data_final", "date_end", kindDate},
		{"baza", "base", kindMoney},
		{"tva", "vat", kindMoney},
	}},
}

// readCSV lee un CSV Windows-1250 con cabecera; claves en minúsculas.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCSV(transform.NewReader(f, charmap.Windows1250.NewDecoder()))
}

func parseCSV(r io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	header := string(first)
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	if strings.Count(header, ";") > strings.Count(header, ",") {
		cr.Comma = ';'
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	keys := make([]string, len(records[0]))
	for i, h := range records[0] {
		keys[i] = strings.ToLower(strings.TrimSpace(h))
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(map[string]string, len(keys))
		for i, k := range keys {
			if i < len(rec) {
				row[k] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sqlValue convierte el valor crudo en un literal SQL según el tipo de columna.
func sqlValue(k kind, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch k {
	case kindInt:
		if raw == "" {
			return "0", nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("entero inválido %q", raw)
		}
		return strconv.Itoa(n), nil
	case kindMoney, kindOptDecimal:
		if raw == "" {
			if k == kindOptDecimal {
				return "NULL", nil
			}
			return "0", nil
		}
		d, err := parseDecimal(raw)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	case kindDate:
		if raw == "" {
			return "NULL", nil
		}
		t, err := parseDate(raw)
		if err != nil {
			return "", err
		}
		return "'" + t.Format("2006-01-02") + "'", nil
	}
	return "'" + strings.ReplaceAll(raw, "'", "''") + "'", nil
}

// parseDecimal acepta "1234.56", "1234,56" y "1.234,56".
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("importe inválido %q", raw)
	}
	return d, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"02.01.2006", "2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", raw)
}
