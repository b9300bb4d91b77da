// Package submission enumerates submitted project folders ("entregas") and
// extracts what the matcher needs from each one: candidate display names,
// source artifacts and the free text embedded in HTML pages.
package submission

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	strip "github.com/grokify/html-strip-tags-go"

	"github.com/simulacomp/entregas/internal/utils"
	"github.com/simulacomp/entregas/pkg/normalize"
)

// ErrNoSubmissions means the submissions directory holds no eligible folder.
var ErrNoSubmissions = errors.New("no submission folders found")

var parenGroup = regexp.MustCompile(`\(.*?\)`)

// Options controls which files count as artifacts and which are read for text.
type Options struct {
	ContentExts []string
	TextExts    []string
}

// DefaultOptions matches C sources and HTML pages.
func DefaultOptions() Options {
	return Options{
		ContentExts: []string{".c"},
		TextExts:    []string{".html", ".htm"},
	}
}

// Submission is one scanned folder. It is not modified after Scan returns.
type Submission struct {
	Folder       string
	Path         string
	ContentFiles []string
	Text         string

	Names     []string
	NormNames []string
	NormText  string
}

// MainFile picks the designated artifact: the first content file whose base
// name contains "main" (any case), else the first content file. It returns
// "" when there are no content files.
func (s Submission) MainFile() string {
	for _, p := range s.ContentFiles {
		if strings.Contains(strings.ToLower(filepath.Base(p)), "main") {
			return p
		}
	}
	if len(s.ContentFiles) > 0 {
		return s.ContentFiles[0]
	}
	return ""
}

// HasContent reports whether the folder holds at least one artifact.
func (s Submission) HasContent() bool {
	return len(s.ContentFiles) > 0
}

// PossibleNames derives display-name variants from a folder name: the name
// with parenthetical groups removed, plus "First Last" when the folder reads
// "Last, First" or, without a comma, "Last_First".
func PossibleNames(folder string) []string {
	base := strings.TrimSpace(parenGroup.ReplaceAllString(folder, ""))
	names := []string{base}

	sep := ""
	switch {
	case strings.Contains(base, ","):
		sep = ","
	case strings.Contains(base, "_"):
		sep = "_"
	}
	if sep != "" {
		parts := strings.SplitN(base, sep, 2)
		reordered := strings.TrimSpace(strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0]))
		if reordered != "" && reordered != base {
			names = append(names, reordered)
		}
	}
	return names
}

// Scan reads every sub-directory of dir as a submission, in directory order.
// Symlinks to directories count as sub-directories. Hidden directories are
// skipped.
func Scan(dir string, opts Options) ([]Submission, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrNoSubmissions, dir)
		}
		return nil, fmt.Errorf("reading submissions directory %s: %w", dir, err)
	}

	contentExts := utils.NormalizeExts(opts.ContentExts)
	textExts := utils.NormalizeExts(opts.TextExts)

	var subs []Submission
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		root, ok := folderRoot(filepath.Join(dir, e.Name()), e)
		if !ok {
			continue
		}
		s, err := scanFolder(e.Name(), root, contentExts, textExts)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}

	if len(subs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSubmissions, dir)
	}
	return subs, nil
}

// folderRoot returns the directory to walk for an entry, resolving symlinks
// so the walk descends into the target.
func folderRoot(path string, e fs.DirEntry) (string, bool) {
	if e.IsDir() {
		return path, true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return path, false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		utils.Log.Warnf("Skipping %s: %v", path, err)
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return target, true
}

func scanFolder(folder, path string, contentExts, textExts []string) (Submission, error) {
	s := Submission{
		Folder: folder,
		Path:   path,
	}

	var texts []string
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			utils.Log.Warnf("Skipping %s: %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if hasExt(contentExts, ext) {
			s.ContentFiles = append(s.ContentFiles, p)
		}
		if hasExt(textExts, ext) {
			text, err := readText(p)
			if err != nil {
				utils.Log.Warnf("Could not read %s: %v", p, err)
				return nil
			}
			texts = append(texts, text)
		}
		return nil
	})
	if err != nil {
		return s, fmt.Errorf("scanning %s: %w", path, err)
	}

	if len(texts) > 0 {
		s.Text = " " + strings.Join(texts, " ")
	}
	s.Names = PossibleNames(s.Folder)
	s.NormNames = normalize.Names(s.Names)
	s.NormText = normalize.Name(s.Text)

	utils.Log.Debugf("Scanned %s: %d content file(s), %d text file(s)", s.Folder, len(s.ContentFiles), len(texts))
	return s, nil
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// readText returns the visible text of an HTML page. Pages goquery cannot
// parse fall back to plain tag stripping.
func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ExtractText(raw), nil
}

// ExtractText returns the text nodes of an HTML document joined by spaces.
func ExtractText(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return strip.StripTags(string(raw))
	}
	doc.Find("script, style").Remove()

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.Join(parts, " ")
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				*parts = append(*parts, t)
			}
			return
		}
		collectText(c, parts)
	})
}
