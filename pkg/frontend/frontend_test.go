package frontend_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codegraph/codegraph/pkg/frontend"
	"github.com/codegraph/codegraph/pkg/ir"
)

// fakeParser is a minimal Parser used only to confirm the interface is
// satisfiable and that ProjectSummary aggregates correctly; no concrete
// language parser lives in this module.
type fakeParser struct{}

func (fakeParser) Language() string     { return "fake" }
func (fakeParser) Extensions() []string { return []string{".fk"} }
func (fakeParser) ParseSource(_ context.Context, path string, _ []byte) (*ir.File, error) {
	return &ir.File{Functions: []ir.Function{{Name: "f", StartLine: 1, EndLine: 2}}}, nil
}
func (fakeParser) ParseFile(_ context.Context, path string) (*ir.File, error) {
	return &ir.File{}, nil
}

func TestFakeParserSatisfiesParser(t *testing.T) {
	var p frontend.Parser = fakeParser{}
	require.Equal(t, "fake", p.Language())
	require.Equal(t, []string{".fk"}, p.Extensions())

	file, err := p.ParseSource(context.Background(), "a.fk", nil)
	require.NoError(t, err)
	require.Len(t, file.Functions, 1)
}

func TestProjectSummaryRecordsSuccessAndFailure(t *testing.T) {
	var summary frontend.ProjectSummary

	summary.Record(frontend.FileMetrics{
		Path: "a.fk", Succeeded: true, Entities: 3, Relationships: 2, Elapsed: 5 * time.Millisecond,
	})
	summary.Record(frontend.FileMetrics{
		Path: "b.fk", Succeeded: false, FailureReason: "parse-error", Elapsed: time.Millisecond,
	})

	require.Equal(t, 2, summary.Attempted)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 3, summary.TotalEntities)
	require.Equal(t, 2, summary.TotalRelationships)
	require.Len(t, summary.FailedFiles, 1)
	require.Equal(t, "parse-error", summary.FailedFiles[0].FailureReason)
	require.Equal(t, 6*time.Millisecond, summary.Elapsed)
}
