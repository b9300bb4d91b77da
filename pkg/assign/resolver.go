// Package assign decides which submission belongs to which team.
//
// Resolution runs in two phases. The candidate index from package match is
// built first and never modified; Resolve then folds it into one Record per
// submission:
//
//   - a team with a single candidate gets that submission (copied);
//   - a team with several candidates whose designated files are
//     byte-identical gets the first one, and every candidate is marked
//     duplicated;
//   - any other multi-candidate team is a conflict: nothing is copied and
//     every candidate is flagged for manual review;
//   - submissions nobody claimed receive fresh team numbers (generated).
package assign

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/simulacomp/entregas/internal/utils"
	"github.com/simulacomp/entregas/pkg/match"
	"github.com/simulacomp/entregas/pkg/roster"
	"github.com/simulacomp/entregas/pkg/submission"
)

// Resolver turns a candidate index into assignment records, copying artifacts
// into Store as it goes.
type Resolver struct {
	Store *Store
	Log   logrus.FieldLogger
}

// NewResolver returns a resolver writing into store and logging through the
// shared logger.
func NewResolver(store *Store) *Resolver {
	return &Resolver{Store: store, Log: utils.Log}
}

// Result is the outcome of one run.
type Result struct {
	// Records holds one record per submission, in scan order.
	Records   []Record
	Teams     int
	Generated []int

	index map[string]int
}

// Record returns the record of a folder.
func (r *Result) Record(folder string) (Record, bool) {
	i, ok := r.index[folder]
	if !ok {
		return Record{}, false
	}
	return r.Records[i], true
}

// Tally counts records per action.
func (r *Result) Tally() map[Action]int {
	out := make(map[Action]int, len(Actions))
	for _, rec := range r.Records {
		out[rec.Action]++
	}
	return out
}

type run struct {
	*Resolver
	subs    map[string]submission.Submission
	records map[string]*Record
}

// Resolve processes every team in roster order, then sweeps the unmatched
// submissions. Only a failure to list the teams directory is returned as an
// error; per-file problems end up in the records.
func (r *Resolver) Resolve(teams []roster.Team, subs []submission.Submission, idx *match.Index) (*Result, error) {
	st := &run{
		Resolver: r,
		subs:     make(map[string]submission.Submission, len(subs)),
		records:  make(map[string]*Record, len(subs)),
	}
	for _, s := range subs {
		st.subs[s.Folder] = s
		rec := &Record{Folder: s.Folder}
		if !s.HasContent() {
			rec.Action = ActionNoFile
		}
		st.records[s.Folder] = rec
	}

	for _, t := range teams {
		r.Log.Infof("Processing team %s - %s", t.Label(), t.Name)
		candidates := idx.Candidates(t.Number)
		switch len(candidates) {
		case 0:
			r.Log.Debugf("%s: no candidate submission", t.Label())
		case 1:
			st.unique(t, candidates[0])
		default:
			st.ambiguous(t, candidates)
		}
	}

	generated, err := st.sweep(teams, idx.Unmatched())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Teams:     len(teams),
		Generated: generated,
		index:     make(map[string]int, len(subs)),
	}
	for i, s := range subs {
		res.Records = append(res.Records, *st.records[s.Folder])
		res.index[s.Folder] = i
	}
	return res, nil
}

func (st *run) materialize(team int, s submission.Submission) bool {
	present, err := st.Store.Materialize(team, s.MainFile())
	if err != nil {
		st.Log.Warnf("Could not copy artifact of %s to %s: %v", s.Folder, roster.Label(team), err)
	}
	return present
}

func (st *run) unique(t roster.Team, folder string) {
	s := st.subs[folder]
	st.materialize(t.Number, s)
	action := ActionNoFile
	if s.HasContent() {
		action = ActionCopied
	}
	st.Log.Infof("%s -> %s : %s", folder, t.Label(), action)

	rec := st.records[folder]
	rec.addTeam(t.Label(), t.Name, t.MemberBlob())
	rec.setAction(action)
}

func (st *run) ambiguous(t roster.Team, candidates []string) {
	digests := make([]Digest, len(candidates))
	for i, folder := range candidates {
		digests[i] = Fingerprint(st.subs[folder].MainFile())
		st.Log.Debugf("%s: %s digest %s", t.Label(), folder, digests[i])
	}

	action := ActionConflict
	if Identical(digests) {
		action = ActionDuplicated
		first := candidates[0]
		present := st.materialize(t.Number, st.subs[first])
		st.Log.Infof("%s -> %s : duplicated (identical artifacts, copied=%t)", first, t.Label(), present)
	} else {
		for _, folder := range candidates {
			st.Log.Warnf("%s -> %s : conflict (different artifacts)", folder, t.Label())
		}
	}

	for _, folder := range candidates {
		rec := st.records[folder]
		rec.addTeam(t.Label(), t.Name, t.MemberBlob())
		rec.setAction(action)
	}
}

// sweep numbers unclaimed submissions in case-insensitive folder order. New
// numbers start after the roster and after every teamNN folder already in
// the store. A folder generated by an earlier run is handed back only to the
// submission whose designated file matches the artifact it holds.
func (st *run) sweep(teams []roster.Team, unmatched []string) ([]int, error) {
	if len(unmatched) == 0 {
		return nil, nil
	}
	SortFolders(unmatched)

	rosterMax := roster.MaxNumber(teams)
	existing, err := st.Store.Numbers()
	if err != nil {
		return nil, err
	}
	floor := rosterMax
	previous := make(map[int]Digest)
	for _, n := range existing {
		if n > floor {
			floor = n
		}
		if n > rosterMax && st.Store.Exists(n) {
			previous[n] = Fingerprint(st.Store.Destination(n))
		}
	}

	numbers := make([]int, len(unmatched))
	var fresh []int
	for i, folder := range unmatched {
		if n, ok := reclaim(previous, Fingerprint(st.subs[folder].MainFile())); ok {
			st.Log.Debugf("%s: reusing %s, same artifact", folder, roster.Label(n))
			numbers[i] = n
			delete(previous, n)
			continue
		}
		fresh = append(fresh, i)
	}
	for k, n := range NextIDs(floor, len(fresh)) {
		numbers[fresh[k]] = n
	}

	for i, folder := range unmatched {
		team := numbers[i]
		s := st.subs[folder]
		st.materialize(team, s)
		action := ActionNoFile
		if s.HasContent() {
			action = ActionGenerated
		}
		label := roster.Label(team)
		st.Log.Infof("%s -> %s : %s", folder, label, action)

		rec := st.records[folder]
		rec.addTeam(label, label, "")
		rec.setAction(action)
	}
	return numbers, nil
}

// reclaim returns the lowest previously generated team whose artifact has
// digest d.
func reclaim(previous map[int]Digest, d Digest) (int, bool) {
	if !d.Available() {
		return 0, false
	}
	found := 0
	for n, p := range previous {
		if Identical([]Digest{p, d}) && (found == 0 || n < found) {
			found = n
		}
	}
	return found, found != 0
}

// SortFolders orders folder names case-insensitively, falling back to a
// byte-wise comparison for names that differ only in case.
func SortFolders(folders []string) {
	sort.SliceStable(folders, func(i, j int) bool {
		a, b := strings.ToLower(folders[i]), strings.ToLower(folders[j])
		if a != b {
			return a < b
		}
		return folders[i] < folders[j]
	})
}
