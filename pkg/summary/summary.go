// Package summary serializes assignment records into the assignment summary
// table and reads such tables back for reporting.
package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/simulacomp/entregas/internal/utils"
	"github.com/simulacomp/entregas/pkg/assign"
)

// Header is the column layout of the summary table.
var Header = []string{"entrega_folder", "team_number", "team_name", "team_members", "action"}

// Row is one line of the summary table.
type Row struct {
	Folder  string
	Teams   string
	Names   string
	Members string
	Action  assign.Action
}

func (r Row) fields() []string {
	return []string{r.Folder, r.Teams, r.Names, r.Members, string(r.Action)}
}

// FromRecord flattens a record. An unset action becomes copied when the
// record names at least one team and one member blob, else no_file.
func FromRecord(rec assign.Record) Row {
	row := Row{
		Folder:  rec.Folder,
		Teams:   strings.Join(rec.Teams, ";"),
		Names:   utils.JoinNonEmpty(rec.TeamNames, ";"),
		Members: utils.JoinNonEmpty(rec.Members, ";"),
		Action:  rec.Action,
	}
	if row.Action == assign.ActionUnset {
		row.Action = assign.ActionNoFile
		if len(rec.Teams) > 0 && row.Members != "" {
			row.Action = assign.ActionCopied
		}
	}
	return row
}

// Rows converts records and sorts them case-insensitively by folder.
func Rows(records []assign.Record) []Row {
	folders := make([]string, 0, len(records))
	byFolder := make(map[string]assign.Record, len(records))
	for _, rec := range records {
		folders = append(folders, rec.Folder)
		byFolder[rec.Folder] = rec
	}
	assign.SortFolders(folders)

	rows := make([]Row, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, FromRecord(byFolder[f]))
	}
	return rows
}

// Write emits the header and rows as CSV.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the summary to path, creating parent directories.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary %s: %w", path, err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return f.Close()
}

// Read parses a summary table. The header row is required.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !headerMatches(records[0]) {
		return nil, fmt.Errorf("missing summary header %v", Header)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			Folder:  rec[0],
			Teams:   rec[1],
			Names:   rec[2],
			Members: rec[3],
			Action:  assign.Action(rec[4]),
		})
	}
	return rows, nil
}

func headerMatches(row []string) bool {
	for i, h := range Header {
		if strings.TrimSpace(row[i]) != h {
			return false
		}
	}
	return true
}

// Tally counts rows per action.
func Tally(rows []Row) map[assign.Action]int {
	out := make(map[assign.Action]int)
	for _, r := range rows {
		out[r.Action]++
	}
	return out
}

// JSON renders rows as a JSON array of objects keyed by the header names.
func JSON(rows []Row) (string, error) {
	out := "[]"
	var err error
	for i, r := range rows {
		prefix := fmt.Sprintf("%d.", i)
		for j, v := range r.fields() {
			out, err = sjson.Set(out, prefix+Header[j], v)
			if err != nil {
				return "", err
			}
		}
	}
	return out, nil
}
