// Package roster loads the table of registered teams.
//
// The roster normally arrives as a CSV export of the registration form. The
// header row is located heuristically (the first row with a cell mentioning
// "team"); every later row whose leading cell is an integer is a team. The
// team name sits in column 4 and up to three members in columns 5 to 7.
// Spreadsheet (.xlsx) exports go through the same row rules, and a .json
// roster is accepted as an array of {"team", "name", "members"} objects.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"github.com/simulacomp/entregas/internal/utils"
)

const (
	nameColumn       = 4
	firstMemberCol   = 5
	memberColumnsEnd = 8 // exclusive
)

// ErrNoRoster is returned by Find when the directory holds no roster file.
var ErrNoRoster = errors.New("no roster CSV found")

// Team is one registered team.
type Team struct {
	Number  int
	Name    string
	Members []string
}

// Label is the fixed-width identifier used for output folders and reports.
func (t Team) Label() string {
	return Label(t.Number)
}

// Label formats a team number as teamNN.
func Label(n int) string {
	return fmt.Sprintf("team%02d", n)
}

// MemberBlob joins the member names the way the summary reports them.
func (t Team) MemberBlob() string {
	return strings.Join(t.Members, ";")
}

// MaxNumber returns the highest team number in teams, or 0.
func MaxNumber(teams []Team) int {
	max := 0
	for _, t := range teams {
		if t.Number > max {
			max = t.Number
		}
	}
	return max
}

// Find returns the first *.csv file (lexical order) directly inside dir.
func Find(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoRoster, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Load reads a roster, picking the parser from the file extension.
func Load(path string) ([]Team, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	case ".json":
		return loadJSON(path)
	default:
		return loadCSV(path)
	}
}

func loadCSV(path string) ([]Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	rows, err := ParseCSV(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return FromRows(rows), nil
}

// ParseCSV splits delimited roster text into rows. A leading Markdown code
// fence line (```) is dropped and ragged rows are accepted.
func ParseCSV(data string) ([][]string, error) {
	if strings.HasPrefix(data, "```") {
		if i := strings.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = ""
		}
	}
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// FromRows applies the header heuristic and turns table rows into teams.
// Team numbers must be positive; a repeated number keeps its first row.
func FromRows(rows [][]string) []Team {
	start := 0
	for i, row := range rows {
		if rowMentionsTeam(row) {
			start = i
			break
		}
	}

	var teams []Team
	for _, row := range rows[start:] {
		if len(row) < 2 {
			continue
		}
		num := strings.TrimSpace(row[0])
		if !isDigits(num) {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			continue
		}

		t := Team{Number: n}
		if len(row) > nameColumn {
			t.Name = strings.TrimSpace(row[nameColumn])
		}
		for i := firstMemberCol; i < memberColumnsEnd && i < len(row); i++ {
			if m := strings.TrimSpace(row[i]); m != "" {
				t.Members = append(t.Members, m)
			}
		}
		teams = append(teams, t)
	}
	return firstByNumber(teams)
}

// firstByNumber keeps the first entry of every team number.
func firstByNumber(teams []Team) []Team {
	seen := make(map[int]bool, len(teams))
	out := teams[:0]
	for _, t := range teams {
		if seen[t.Number] {
			utils.Log.Warnf("Roster lists team %d more than once, ignoring %q", t.Number, t.Name)
			continue
		}
		seen[t.Number] = true
		out = append(out, t)
	}
	return out
}

func rowMentionsTeam(row []string) bool {
	for _, c := range row {
		if strings.Contains(strings.ToLower(c), "team") {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func loadXLSX(path string) ([]Team, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheets[0], path, err)
	}
	return FromRows(rows), nil
}

func loadJSON(path string) ([]Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("roster %s is not valid JSON", path)
	}
	return FromJSON(string(data)), nil
}

// FromJSON reads an array of {"team": n, "name": s, "members": [...]}
// objects. Entries without a positive team number are skipped.
func FromJSON(body string) []Team {
	var teams []Team
	for _, item := range gjson.Parse(body).Array() {
		n := int(item.Get("team").Int())
		if n <= 0 {
			continue
		}
		t := Team{
			Number: n,
			Name:   strings.TrimSpace(item.Get("name").String()),
		}
		for _, m := range item.Get("members").Array() {
			if s := strings.TrimSpace(m.String()); s != "" {
				t.Members = append(t.Members, s)
			}
		}
		teams = append(teams, t)
	}
	return firstByNumber(teams)
}
