// seed_funding genera un script SQL con los datos maestros de financiación (proyectos,
// líneas de presupuesto, actividades y adquisiciones) a partir de los CSV exportados
// por el sistema de gestión de la financiación, codificados en Windows-1250.
//
// Uso: go run ./cmd/seed_funding <directorio-csv> [salida.sql]
//
// Archivos esperados en el directorio (solo projects.csv es obligatorio):
//
//	projects.csv  budget_lines.csv  activities.csv  acquisitions.csv
//
// Separador ';' o ',' (se detecta en la cabecera). Los importes aceptan coma decimal
// y las fechas DD.MM.YYYY o YYYY-MM-DD. Cada fila se escribe como upsert por id.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_funding <directorio-csv> [salida.sql]")
		os.Exit(2)
	}
	dir := os.Args[1]
	outPath := "seed_funding.sql"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	fmt.Fprintf(w, "-- Datos maestros de financiación generados desde %s\n\nBEGIN;\n\n", filepath.Base(dir))
	total := 0
	for _, t := range tables {
		path := filepath.Join(dir, t.file)
		rows, err := readCSV(path)
		if errors.Is(err, fs.ErrNotExist) && !t.required {
			fmt.Printf("%s: no encontrado, se omite\n", t.file)
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer %s: %v\n", t.file, err)
			os.Exit(1)
		}
		n, err := writeTable(w, t, rows)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", t.file, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d filas\n", t.name, n)
		total += n
	}
	w.WriteString("COMMIT;\n")
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d filas\n", outPath, total)
}

// writeTable escribe un upsert por fila; devuelve cuántas filas escribió.
func writeTable(w *bufio.Writer, t table, rows []map[string]string) (int, error) {
	names := make([]string, len(t.columns))
	var updates []string
	for i, c := range t.columns {
		names[i] = c.name
		if c.name != "id" {
			updates = append(updates, c.name+" = EXCLUDED."+c.name)
		}
	}
	fmt.Fprintf(w, "-- %s\n", t.name)
	for i, row := range rows {
		values := make([]string, len(t.columns))
		for j, c := range t.columns {
			v, err := sqlValue(c.kind, row[c.header])
			if err != nil {
				// +2: cabecera y numeración desde 1
				return i, fmt.Errorf("fila %d, columna %s: %w", i+2, c.header, err)
			}
			values[j] = v
		}
		if values[0] == "''" {
			return i, fmt.Errorf("fila %d: id vacío", i+2)
		}
		fmt.Fprintf(w, "INSERT INTO %s (%s) VALUES (%s)\nON CONFLICT (id) DO UPDATE SET %s;\n",
			t.name, strings.Join(names, ", "), strings.Join(values, ", "), strings.Join(updates, ", "))
	}
	w.WriteString("\n")
	return len(rows), nil
}
