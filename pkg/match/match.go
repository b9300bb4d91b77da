// Package match correlates roster teams with scanned submissions.
//
// A team is linked to a submission when one of its normalized member names
// is a substring of one of the submission's normalized name variants
// (folder-name evidence) or, failing that, of the submission's normalized
// embedded text (text evidence). Folder-name evidence always wins over text
// evidence for the same pair.
package match

import (
	"strings"

	"github.com/simulacomp/entregas/pkg/normalize"
	"github.com/simulacomp/entregas/pkg/roster"
	"github.com/simulacomp/entregas/pkg/submission"
)

// Evidence is the kind of proof behind a link.
type Evidence string

const (
	EvidenceName Evidence = "folder_name"
	EvidenceText Evidence = "html_text"
)

// Link ties a team to a submission folder.
type Link struct {
	Team     int
	Folder   string
	Evidence Evidence
}

// Index is the bidirectional candidate index. It is built once by Build
// and only read afterwards.
type Index struct {
	byFolder map[string][]Link
	byTeam   map[int][]string
	folders  []string
}

// Build evaluates every (team, submission) pair. Submissions are visited in
// the given order and teams in roster order, which fixes the order of every
// list the index returns. Entries sharing a team number are one team.
func Build(teams []roster.Team, subs []submission.Submission) *Index {
	idx := &Index{
		byFolder: make(map[string][]Link),
		byTeam:   make(map[int][]string),
	}

	tokens := make(map[int][]string, len(teams))
	var numbers []int
	for _, t := range teams {
		if _, ok := tokens[t.Number]; !ok {
			numbers = append(numbers, t.Number)
		}
		tokens[t.Number] = append(tokens[t.Number], normalize.Names(t.Members)...)
	}

	seen := make(map[string]bool)
	for _, s := range subs {
		if seen[s.Folder] {
			continue
		}
		seen[s.Folder] = true
		idx.folders = append(idx.folders, s.Folder)
		for _, n := range numbers {
			ev, ok := Evaluate(tokens[n], s)
			if !ok {
				continue
			}
			idx.byFolder[s.Folder] = append(idx.byFolder[s.Folder], Link{Team: n, Folder: s.Folder, Evidence: ev})
			idx.byTeam[n] = append(idx.byTeam[n], s.Folder)
		}
	}
	return idx
}

// Evaluate applies the matching rules for one team against one submission.
// Empty tokens never match.
func Evaluate(tokens []string, s submission.Submission) (Evidence, bool) {
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		for _, n := range s.NormNames {
			if strings.Contains(n, tok) {
				return EvidenceName, true
			}
		}
	}
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.Contains(s.NormText, tok) {
			return EvidenceText, true
		}
	}
	return "", false
}

// Links returns the links recorded for a submission folder.
func (idx *Index) Links(folder string) []Link {
	return append([]Link(nil), idx.byFolder[folder]...)
}

// Candidates returns the de-duplicated candidate folders of a team, in
// first-seen order.
func (idx *Index) Candidates(team int) []string {
	return append([]string(nil), idx.byTeam[team]...)
}

// Matched reports whether a folder received at least one link.
func (idx *Index) Matched(folder string) bool {
	return len(idx.byFolder[folder]) > 0
}

// Unmatched returns folders without any link, in scan order.
func (idx *Index) Unmatched() []string {
	var out []string
	for _, f := range idx.folders {
		if !idx.Matched(f) {
			out = append(out, f)
		}
	}
	return out
}
