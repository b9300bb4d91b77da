package assign

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/simulacomp/entregas/pkg/match"
	"github.com/simulacomp/entregas/pkg/roster"
	"github.com/simulacomp/entregas/pkg/submission"
)

type fixture struct {
	t        *testing.T
	entregas string
	store    *Store
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	return &fixture{
		t:        t,
		entregas: filepath.Join(root, "entregas"),
		store:    NewStore(filepath.Join(root, "teams"), ""),
	}
}

func (f *fixture) file(folder, name, content string) {
	f.t.Helper()
	path := filepath.Join(f.entregas, folder, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

// dangling places a content file that cannot be read: a symlink to a
// missing target.
func (f *fixture) dangling(folder, name string) {
	f.t.Helper()
	path := filepath.Join(f.entregas, folder, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(f.entregas, "does-not-exist.c"), path); err != nil {
		f.t.Skipf("symlinks not supported: %v", err)
	}
}

func (f *fixture) resolve(teams []roster.Team) *Result {
	f.t.Helper()
	subs, err := submission.Scan(f.entregas, submission.DefaultOptions())
	if err != nil {
		f.t.Fatalf("Scan: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := &Resolver{Store: f.store, Log: log}
	res, err := r.Resolve(teams, subs, match.Build(teams, subs))
	if err != nil {
		f.t.Fatalf("Resolve: %v", err)
	}
	if len(res.Records) != len(subs) {
		f.t.Fatalf("expected %d records, got %d", len(subs), len(res.Records))
	}
	return res
}

func (f *fixture) record(res *Result, folder string) Record {
	f.t.Helper()
	rec, ok := res.Record(folder)
	if !ok {
		f.t.Fatalf("no record for %s", folder)
	}
	return rec
}

func (f *fixture) artifact(team int) string {
	f.t.Helper()
	data, err := os.ReadFile(f.store.Destination(team))
	if err != nil {
		return ""
	}
	return string(data)
}

var anaTeam = []roster.Team{{Number: 7, Name: "Los Robots", Members: []string{"Ana García"}}}

func TestResolveDuplicated(t *testing.T) {
	f := newFixture(t)
	f.file("Garcia_Ana (v2)", "main_v2.c", "int main(void) { return 0; }")
	f.file("ana garcia backup", "robot.c", "int main(void) { return 0; }")

	res := f.resolve(anaTeam)
	for _, folder := range []string{"Garcia_Ana (v2)", "ana garcia backup"} {
		rec := f.record(res, folder)
		if rec.Action != ActionDuplicated {
			t.Fatalf("%s: expected duplicated, got %q", folder, rec.Action)
		}
		if len(rec.Teams) != 1 || rec.Teams[0] != "team07" {
			t.Fatalf("%s: expected team07, got %#v", folder, rec.Teams)
		}
	}
	if got := f.artifact(7); got != "int main(void) { return 0; }" {
		t.Fatalf("expected artifact copied for team 7, got %q", got)
	}
	if len(res.Generated) != 0 {
		t.Fatalf("expected no generated teams, got %v", res.Generated)
	}
}

func TestResolveConflict(t *testing.T) {
	f := newFixture(t)
	f.file("Garcia_Ana (v2)", "main_v2.c", "int main(void) { return 0; }")
	f.file("ana garcia backup", "main.c", "int main(void) { return 1; }")

	res := f.resolve(anaTeam)
	for _, folder := range []string{"Garcia_Ana (v2)", "ana garcia backup"} {
		rec := f.record(res, folder)
		if rec.Action != ActionConflict {
			t.Fatalf("%s: expected conflict, got %q", folder, rec.Action)
		}
		if len(rec.Teams) != 1 || rec.Teams[0] != "team07" || rec.TeamNames[0] != "Los Robots" {
			t.Fatalf("%s: unexpected teams %#v %#v", folder, rec.Teams, rec.TeamNames)
		}
	}
	if f.store.Exists(7) {
		t.Fatal("conflict must not copy any artifact")
	}
}

func TestResolveMissingArtifactIsConflict(t *testing.T) {
	f := newFixture(t)
	f.file("Garcia_Ana", "main.c", "same")
	f.file("ana garcia docs", "notes.html", "<p>nothing</p>")

	res := f.resolve(anaTeam)
	if rec := f.record(res, "Garcia_Ana"); rec.Action != ActionConflict {
		t.Fatalf("expected conflict, got %q", rec.Action)
	}
	if rec := f.record(res, "ana garcia docs"); rec.Action != ActionConflict {
		t.Fatalf("expected conflict, got %q", rec.Action)
	}
}

func TestResolveUnreadableArtifactIsConflict(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia 1", "main.c", "same")
	f.file("Ana Garcia 2", "main.c", "same")
	f.dangling("Ana Garcia 3", "main.c")

	res := f.resolve(anaTeam)
	for _, folder := range []string{"Ana Garcia 1", "Ana Garcia 2", "Ana Garcia 3"} {
		if rec := f.record(res, folder); rec.Action != ActionConflict {
			t.Fatalf("%s: expected conflict, got %q", folder, rec.Action)
		}
	}
	if f.store.Exists(7) {
		t.Fatal("conflict must not copy any artifact")
	}
}

func TestResolveUnique(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "src/util.c", "util")
	f.file("Ana Garcia", "src/Main.c", "main")

	res := f.resolve(anaTeam)
	rec := f.record(res, "Ana Garcia")
	if rec.Action != ActionCopied {
		t.Fatalf("expected copied, got %q", rec.Action)
	}
	if len(rec.Teams) != 1 || rec.Teams[0] != "team07" || rec.Members[0] != "Ana García" {
		t.Fatalf("unexpected record %#v", rec)
	}
	if got := f.artifact(7); got != "main" {
		t.Fatalf("expected Main.c to be copied, got %q", got)
	}
}

func TestResolveUniqueDoesNotOverwrite(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "main.c", "new")
	if err := os.MkdirAll(f.store.TeamDir(7), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.store.Destination(7), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := f.resolve(anaTeam)
	if rec := f.record(res, "Ana Garcia"); rec.Action != ActionCopied {
		t.Fatalf("expected copied, got %q", rec.Action)
	}
	if got := f.artifact(7); got != "old" {
		t.Fatalf("existing artifact was overwritten: %q", got)
	}
}

func TestResolveUniqueWithoutFile(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "memoria.pdf", "%PDF")

	res := f.resolve(anaTeam)
	rec := f.record(res, "Ana Garcia")
	if rec.Action != ActionNoFile {
		t.Fatalf("expected no_file, got %q", rec.Action)
	}
	if len(rec.Teams) != 1 {
		t.Fatalf("expected the team to be listed, got %#v", rec.Teams)
	}
}

func TestResolveCopyFailureKeepsContentAction(t *testing.T) {
	f := newFixture(t)
	f.dangling("Ana Garcia", "main.c")
	f.dangling("stranger", "main.c")

	res := f.resolve(anaTeam)
	if rec := f.record(res, "Ana Garcia"); rec.Action != ActionCopied {
		t.Fatalf("expected copied, got %q", rec.Action)
	}
	if rec := f.record(res, "stranger"); rec.Action != ActionGenerated {
		t.Fatalf("expected generated, got %q", rec.Action)
	}
	if f.store.Exists(7) || f.store.Exists(8) {
		t.Fatal("nothing readable to copy")
	}
}

func TestResolveGenerated(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "main.c", "ana")
	f.file("zeta", "solution.c", "zeta")
	f.file("Beta", "solution.c", "beta")
	f.file("alpha", "readme.txt", "no code")
	if err := os.MkdirAll(filepath.Join(f.store.Dir, "team09"), 0o755); err != nil {
		t.Fatal(err)
	}

	res := f.resolve(anaTeam)

	want := map[string]struct {
		label  string
		action Action
	}{
		"alpha": {"team10", ActionNoFile},
		"Beta":  {"team11", ActionGenerated},
		"zeta":  {"team12", ActionGenerated},
	}
	for folder, w := range want {
		rec := f.record(res, folder)
		if rec.Action != w.action || len(rec.Teams) != 1 || rec.Teams[0] != w.label {
			t.Fatalf("%s: got %q %#v, want %s %s", folder, rec.Action, rec.Teams, w.label, w.action)
		}
		if rec.TeamNames[0] != w.label || rec.Members[0] != "" {
			t.Fatalf("%s: unexpected name/members %#v %#v", folder, rec.TeamNames, rec.Members)
		}
	}
	if got := f.artifact(12); got != "zeta" {
		t.Fatalf("expected zeta artifact in team12, got %q", got)
	}
	if len(res.Generated) != 3 || res.Generated[0] != 10 {
		t.Fatalf("unexpected generated ids %v", res.Generated)
	}

	tally := res.Tally()
	if tally[ActionGenerated] != 2 || tally[ActionNoFile] != 1 || tally[ActionCopied] != 1 {
		t.Fatalf("unexpected tally %v", tally)
	}
}

func TestResolveGeneratedIsStableAcrossRuns(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "main.c", "ana")
	f.file("zeta", "solution.c", "zeta")
	f.file("Beta", "solution.c", "beta")

	first := f.resolve(anaTeam)
	second := f.resolve(anaTeam)
	for _, folder := range []string{"Beta", "zeta"} {
		a, b := f.record(first, folder), f.record(second, folder)
		if a.Teams[0] != b.Teams[0] || a.Action != b.Action {
			t.Fatalf("%s changed between runs: %v/%s -> %v/%s", folder, a.Teams, a.Action, b.Teams, b.Action)
		}
	}
	if rec := f.record(first, "Beta"); rec.Teams[0] != "team08" || rec.Action != ActionGenerated {
		t.Fatalf("unexpected Beta record %#v", rec)
	}
}

func TestResolveNewFolderDoesNotTakeOverGeneratedTeam(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "main.c", "ana")
	f.file("Beta", "solution.c", "beta code")

	first := f.resolve(anaTeam)
	if rec := f.record(first, "Beta"); rec.Teams[0] != "team08" {
		t.Fatalf("expected team08, got %#v", rec.Teams)
	}

	f.file("Aaa late", "solution.c", "late code")
	second := f.resolve(anaTeam)

	want := map[string]struct {
		team    int
		content string
	}{
		"Beta":     {8, "beta code"},
		"Aaa late": {9, "late code"},
	}
	for folder, w := range want {
		rec := f.record(second, folder)
		if rec.Action != ActionGenerated || rec.Teams[0] != roster.Label(w.team) {
			t.Fatalf("%s: got %q %#v, want %s", folder, rec.Action, rec.Teams, roster.Label(w.team))
		}
		if got := f.artifact(w.team); got != w.content {
			t.Fatalf("%s holds %q, want %q", roster.Label(w.team), got, w.content)
		}
	}
}

func TestResolveGeneratedAfterExistingFolders(t *testing.T) {
	f := newFixture(t)
	f.file("stranger", "solution.c", "x")
	if err := os.MkdirAll(filepath.Join(f.store.Dir, "team20"), 0o755); err != nil {
		t.Fatal(err)
	}

	res := f.resolve(anaTeam)
	if rec := f.record(res, "stranger"); rec.Teams[0] != "team21" {
		t.Fatalf("expected team21, got %#v", rec.Teams)
	}
}

func TestResolveGeneratedAfterRosterMax(t *testing.T) {
	f := newFixture(t)
	f.file("stranger", "solution.c", "x")

	teams := append([]roster.Team{{Number: 30, Name: "Late", Members: []string{"Nadie"}}}, anaTeam...)
	res := f.resolve(teams)
	if rec := f.record(res, "stranger"); rec.Teams[0] != "team31" {
		t.Fatalf("expected team31, got %#v", rec.Teams)
	}
}

func TestResolveConflictOutranksUnique(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia y Luis Perez", "main.c", "shared")
	f.file("Luis Perez solo", "main.c", "different")

	teams := []roster.Team{
		{Number: 1, Name: "Uno", Members: []string{"Ana García"}},
		{Number: 2, Name: "Dos", Members: []string{"Luis Pérez"}},
	}
	res := f.resolve(teams)

	rec := f.record(res, "Ana Garcia y Luis Perez")
	if rec.Action != ActionConflict {
		t.Fatalf("expected conflict to win, got %q", rec.Action)
	}
	if len(rec.Teams) != 2 || rec.Teams[0] != "team01" || rec.Teams[1] != "team02" {
		t.Fatalf("expected both teams listed, got %#v", rec.Teams)
	}
	if !f.store.Exists(1) || f.store.Exists(2) {
		t.Fatal("team 1 should be copied, team 2 should not")
	}
}

func TestResolveEveryRecordHasValidAction(t *testing.T) {
	f := newFixture(t)
	f.file("Ana Garcia", "main.c", "a")
	f.file("ana garcia again", "main.c", "b")
	f.file("other", "x.c", "c")
	f.file("nothing", "x.txt", "d")

	res := f.resolve(anaTeam)
	for _, rec := range res.Records {
		if !rec.Action.Valid() {
			t.Fatalf("%s: invalid action %q", rec.Folder, rec.Action)
		}
	}
}
