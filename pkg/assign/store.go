package assign

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/simulacomp/entregas/pkg/roster"
)

// DefaultArtifact is the file name each team folder receives.
const DefaultArtifact = "main.c"

// Store is the teams output directory: one teamNN folder per team holding a
// single copied artifact that is never overwritten.
type Store struct {
	Dir      string
	Artifact string
}

// NewStore returns a store rooted at dir. An empty artifact name falls back
// to DefaultArtifact.
func NewStore(dir, artifact string) *Store {
	if artifact == "" {
		artifact = DefaultArtifact
	}
	return &Store{Dir: dir, Artifact: artifact}
}

// TeamDir is the output folder of a team.
func (s *Store) TeamDir(team int) string {
	return filepath.Join(s.Dir, roster.Label(team))
}

// Destination is where a team's artifact lives.
func (s *Store) Destination(team int) string {
	return filepath.Join(s.TeamDir(team), s.Artifact)
}

// Exists reports whether the team's artifact is already in place.
func (s *Store) Exists(team int) bool {
	_, err := os.Stat(s.Destination(team))
	return err == nil
}

// Materialize makes sure the team folder exists and copies src into it unless
// an artifact is already there. It reports whether the team ends up with an
// artifact. An empty src is not an error.
func (s *Store) Materialize(team int, src string) (bool, error) {
	if err := os.MkdirAll(s.TeamDir(team), 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", s.TeamDir(team), err)
	}
	if s.Exists(team) {
		return true, nil
	}
	if src == "" {
		return false, nil
	}
	if err := copyFile(src, s.Destination(team)); err != nil {
		return false, err
	}
	return true, nil
}

// copyFile writes to a temporary sibling first so an interrupted run never
// leaves a truncated artifact behind.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// Numbers returns the numbers of the teamNN folders already in the store,
// ascending. A missing directory holds no teams.
func (s *Store) Numbers() ([]int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading teams directory %s: %w", s.Dir, err)
	}

	var numbers []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "team") {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, e.Name())
		if digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// MaxExisting returns the highest number among teamNN folders already in the
// store, or 0 when there are none or the directory does not exist yet.
func (s *Store) MaxExisting() (int, error) {
	numbers, err := s.Numbers()
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	return numbers[len(numbers)-1], nil
}
