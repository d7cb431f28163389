package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/sma-timetable-editor/internal/timetable"
)

// Occupancy table columns.
const (
	ColumnType     = "Type"
	ColumnResource = "Resource"
	ColumnStart    = "Start"
	ColumnEnd      = "End"
	ColumnEvent    = "Event"
)

// Dataset is tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// OccupancyTable flattens a snapshot into one row per booking, ordered by start then resource.
func OccupancyTable(snap timetable.Snapshot, names Names, loc *time.Location) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	type row struct {
		kind     string
		resource timetable.ResourceID
		label    string
		b        timetable.Booking
	}
	rows := make([]row, 0, len(snap.Rooms)+len(snap.Invigilations))
	for _, b := range snap.Rooms {
		rows = append(rows, row{kind: "room", resource: b.Resource, label: names.room(b.Resource), b: b})
	}
	for _, b := range snap.Invigilations {
		rows = append(rows, row{kind: "invigilation", resource: b.Resource, label: names.teacher(b.Resource), b: b})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].b.Range.Start != rows[j].b.Range.Start {
			return rows[i].b.Range.Start < rows[j].b.Range.Start
		}
		return rows[i].resource < rows[j].resource
	})

	data := Dataset{Headers: []string{ColumnType, ColumnResource, ColumnStart, ColumnEnd, ColumnEvent}}
	for _, r := range rows {
		data.Rows = append(data.Rows, map[string]string{
			ColumnType:     r.kind,
			ColumnResource: r.label,
			ColumnStart:    time.Unix(r.b.Range.Start, 0).In(loc).Format("2006-01-02 15:04"),
			ColumnEnd:      time.Unix(r.b.Range.End, 0).In(loc).Format("2006-01-02 15:04"),
			ColumnEvent:    string(r.b.Owner),
		})
	}
	return data
}

// RenderCSV produces CSV encoded bytes for the dataset.
func RenderCSV(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF lays the dataset out as a landscape A4 table under an optional title.
func RenderPDF(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 277.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
