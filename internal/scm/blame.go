package scm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrIllegalArgument matches every error returned from BlameResult.
var ErrIllegalArgument = errors.New("illegal argument")

// argumentError is a rejected blame result.
type argumentError string

func (e argumentError) Error() string { return string(e) }

func (e argumentError) Is(target error) bool { return target == ErrIllegalArgument }

func illegalArgument(format string, args ...any) error {
	return argumentError(fmt.Sprintf(format, args...))
}

// InputFile is a file of the analysis.
type InputFile struct {
	// Key identifies the file in messages, e.g. "proj:src/a.go".
	Key string
	// Path is relative to the repository root, slash separated.
	Path string
	// Lines is the number of lines of the file.
	Lines int
}

func (f InputFile) String() string {
	return f.Key
}

// BlameLine is the blame of one line.
type BlameLine struct {
	Date     time.Time
	Revision string
	Author   string
}

// Changeset is a distinct revision touching a file.
type Changeset struct {
	Revision string
	Author   string
	Date     time.Time
}

// FileBlame is the accepted blame of a file. LineChangesets[i] indexes the
// changeset of line i+1.
type FileBlame struct {
	File           InputFile
	Changesets     []Changeset
	LineChangesets []int
}

// BlameOutput validates and records blame results.
// Safe for concurrent use by blame producers.
type BlameOutput struct {
	baseURL  string
	warnings *Warnings

	mu      sync.Mutex
	files   []InputFile
	pending map[string]bool
	results []FileBlame
}

// NewBlameOutput expects a blame result for each of files.
func NewBlameOutput(baseURL string, warnings *Warnings, files []InputFile) *BlameOutput {
	o := &BlameOutput{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		warnings: warnings,
		files:    files,
		pending:  make(map[string]bool, len(files)),
	}
	for _, f := range files {
		o.pending[f.Key] = true
	}
	return o
}

// BlameResult records the blame of file.
//
// A result whose line count differs from file.Lines is ignored and the file
// stays unblamed.
func (o *BlameOutput) BlameResult(file InputFile, lines []BlameLine) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.pending[file.Key] {
		return illegalArgument("It was not expected to blame file %s", file)
	}
	if len(lines) != file.Lines {
		slog.Debug("ignoring blame result",
			"file", file.Key,
			"blame_lines", len(lines),
			"file_lines", file.Lines,
		)
		return nil
	}

	blame := FileBlame{File: file, LineChangesets: make([]int, 0, len(lines))}
	index := map[string]int{}
	for i, line := range lines {
		if line.Date.IsZero() {
			return illegalArgument("Blame date is null for file %s at line %d", file, i+1)
		}
		if strings.TrimSpace(line.Revision) == "" {
			return illegalArgument("Blame revision is blank for file %s at line %d", file, i+1)
		}
		id, ok := index[line.Revision]
		if !ok {
			id = len(blame.Changesets)
			index[line.Revision] = id
			blame.Changesets = append(blame.Changesets, Changeset{Revision: line.Revision, Author: line.Author, Date: line.Date})
		}
		blame.LineChangesets = append(blame.LineChangesets, id)
	}

	delete(o.pending, file.Key)
	o.results = append(o.results, blame)
	return nil
}

// Results returns the accepted blames in the order they were reported.
func (o *BlameOutput) Results() []FileBlame {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]FileBlame, len(o.results))
	copy(out, o.results)
	return out
}

// Missing returns the files without an accepted blame.
func (o *BlameOutput) Missing() []InputFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.missing()
}

func (o *BlameOutput) missing() []InputFile {
	var out []InputFile
	for _, f := range o.files {
		if o.pending[f.Key] {
			out = append(out, f)
		}
	}
	return out
}

// Finish ends the blame phase. When success is true and files are left
// unblamed, they are logged and one analysis warning is added.
func (o *BlameOutput) Finish(success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	missing := o.missing()
	if !success || len(missing) == 0 {
		return
	}

	keys := make([]string, 0, len(missing))
	for _, f := range missing {
		keys = append(keys, f.Key)
	}
	slog.Warn("missing blame information", "files", keys)
	slog.Warn("this may lead to missing or broken features")

	noun := "files"
	if len(missing) == 1 {
		noun = "file"
	}
	o.warnings.AddUnique(fmt.Sprintf(
		"Missing blame information for %d %s. This may lead to some features not working correctly. "+
			"Please check the analysis logs and refer to <a href=\"%s\" target=\"_blank\">the documentation</a>.",
		len(missing), noun, o.docURL()))
}

func (o *BlameOutput) docURL() string {
	return o.baseURL + "/documentation/analysis/scm-integration/"
}

// CountLines returns the number of lines of content the way blame
// producers count them: a trailing newline does not start a line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := strings.Count(string(content), "\n")
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
