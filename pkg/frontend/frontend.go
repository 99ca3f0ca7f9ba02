// Package frontend declares the contract a language-specific parser
// implements to feed package mapper. No concrete parser lives in this
// module: tree-walking, tokenization, and language-specific AST handling
// are external collaborators; this package only defines the shape of
// that collaboration and the aggregation types a host process uses to
// report on a multi-file run.
package frontend

import (
	"context"
	"time"

	"github.com/codegraph/codegraph/pkg/ir"
)

// Parser is implemented once per supported language. A process may hold
// many Parsers and dispatch files to the right one by extension.
//
// Implementations may parse files in parallel; the IR each produces is
// thread-local until handed to package mapper, which serializes all
// writes to the graph store.
type Parser interface {
	// Language returns the identifier this parser stamps onto the IR it
	// produces (e.g. "go", "python", "rust").
	Language() string

	// Extensions lists the file extensions (including the leading dot)
	// this parser claims, e.g. [".go"].
	Extensions() []string

	// ParseSource parses source text already in memory. path is the
	// logical file path recorded on the resulting IR; it need not exist
	// on disk.
	ParseSource(ctx context.Context, path string, source []byte) (*ir.File, error)

	// ParseFile parses a file from the filesystem at path.
	ParseFile(ctx context.Context, path string) (*ir.File, error)
}

// DirectoryParser is an optional capability: a Parser may additionally
// implement a recursive-directory entry point that walks a tree and
// parses every file it claims.
type DirectoryParser interface {
	Parser

	// ParseDirectory walks root recursively and parses every file whose
	// extension this parser claims.
	ParseDirectory(ctx context.Context, root string) ([]*ir.File, error)
}

// FileMetrics reports the outcome of parsing and mapping one file.
type FileMetrics struct {
	Path      string
	Succeeded bool
	// FailureReason is one of the error kinds a front-end surfaces:
	// "io-error", "parse-error", "file-too-large", "timeout", or the
	// mapper's own "batch-failed". Empty when Succeeded is true.
	FailureReason string
	Entities      int
	Relationships int
	Elapsed       time.Duration
}

// ProjectSummary aggregates FileMetrics across a multi-file run: how many
// files were attempted, how many succeeded, and which failed and why. A
// front-end builds one of these while driving Parser and package mapper
// over a tree of source files; the core itself never produces one.
type ProjectSummary struct {
	Attempted int
	Succeeded int
	Failed    int

	TotalEntities      int
	TotalRelationships int
	Elapsed            time.Duration

	FailedFiles []FileMetrics
}

// Record folds one file's outcome into the summary.
func (s *ProjectSummary) Record(m FileMetrics) {
	s.Attempted++
	s.Elapsed += m.Elapsed
	if m.Succeeded {
		s.Succeeded++
		s.TotalEntities += m.Entities
		s.TotalRelationships += m.Relationships
		return
	}
	s.Failed++
	s.FailedFiles = append(s.FailedFiles, m)
}
