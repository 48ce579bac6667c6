package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tr := New()

	tests := []struct {
		name       string
		selections []string
		want       ContentPath
		wantErr    bool
	}{
		{name: "category only", selections: []string{"ielts"}, want: ContentPath{"ielts"}},
		{name: "category is lower-cased", selections: []string{"IELTS"}, want: ContentPath{"ielts"}},
		{name: "static sub-level by id", selections: []string{"ielts", "IELTS READING", "Passage 1"}, want: ContentPath{"ielts", "IELTS READING", "Passage 1"}},
		{name: "static sub-level by title", selections: []string{"ielts", "ielts reading", "Reading Passage 2"}, want: ContentPath{"ielts", "IELTS READING", "Passage 2"}},
		{name: "grammar level is free-form", selections: []string{"Grammar", " Pre-Intermediate "}, want: ContentPath{"grammar", "Pre-Intermediate"}},
		{name: "empty selections", selections: nil, wantErr: true},
		{name: "blank segment", selections: []string{"ielts", "  "}, wantErr: true},
		{name: "unknown category", selections: []string{"toefl"}, wantErr: true},
		{name: "unknown level", selections: []string{"ielts", "IELTS MATHS"}, wantErr: true},
		{name: "below grammar level", selections: []string{"grammar", "Advanced", "extra"}, wantErr: true},
		{name: "below sub-level", selections: []string{"multilevel", "MULTI LEVEL WRITING", "Task 1", "x"}, wantErr: true},
		{name: "slash in segment", selections: []string{"grammar", "a/b"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tr.Resolve(tt.selections...)
			if tt.wantErr {
				require.ErrorIs(t, err, app_errors.ErrInvalidSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildrenOfStaticIsDeterministic(t *testing.T) {
	t.Parallel()

	tr := New()
	for _, selections := range [][]string{
		{"ielts"},
		{"multilevel"},
		{"ielts", "IELTS LISTENING"},
		{"multilevel", "MULTI LEVEL READING"},
	} {
		path, err := tr.Resolve(selections...)
		require.NoError(t, err)

		first, err := tr.ChildrenOf(path)
		require.NoError(t, err)
		require.IsType(t, StaticBranch{}, first)
		require.NotEmpty(t, first.Children())

		second, err := tr.ChildrenOf(path)
		require.NoError(t, err)
		assert.Equal(t, first.Children(), second.Children())

		// Mutating a result must not leak into the catalog.
		first.Children()[0] = "changed"
		first.(StaticBranch).Nodes[0].ID = "changed"
		third, err := tr.ChildrenOf(path)
		require.NoError(t, err)
		assert.Equal(t, second.Children(), third.Children())
	}
}

func TestChildrenOfOrder(t *testing.T) {
	t.Parallel()

	tr := New()
	branch, err := tr.ChildrenOf(ContentPath{"ielts", "IELTS READING"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Passage 1", "Passage 2", "Passage 3"}, branch.Children())

	root, err := tr.ChildrenOf(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"grammar", "ielts", "multilevel"}, root.Children())
}

func TestChildrenOfGrammarIsDynamic(t *testing.T) {
	t.Parallel()

	tr := New()
	branch, err := tr.ChildrenOf(ContentPath{"grammar"})
	require.NoError(t, err)

	dyn, ok := branch.(DynamicBranch)
	require.True(t, ok)
	assert.Empty(t, branch.Children())
	assert.Equal(t, QueryLevels, dyn.Query.Kind)
	assert.Equal(t, "grammarMaterials", dyn.Query.Collection)
	assert.Contains(t, dyn.Suggested, "Advanced")

	root, err := tr.LevelsRoot(ContentPath{"grammar"})
	require.NoError(t, err)
	assert.Equal(t, "grammarMaterials", root)

	_, err = tr.LevelsRoot(ContentPath{"ielts"})
	require.ErrorIs(t, err, app_errors.ErrInvalidSelection)
}

func TestChildrenOfCollectionIsLessonQuery(t *testing.T) {
	t.Parallel()

	tr := New()
	branch, err := tr.ChildrenOf(ContentPath{"ielts", "IELTS READING", "Passage 1"})
	require.NoError(t, err)

	dyn, ok := branch.(DynamicBranch)
	require.True(t, ok)
	assert.Equal(t, QueryLessons, dyn.Query.Kind)
	assert.Equal(t, "ieltsMaterials/Reading Passage 1/lessons", dyn.Query.Collection)
	assert.True(t, dyn.Query.Ascending)
}

func TestCollectionPath(t *testing.T) {
	t.Parallel()

	tr := New()

	tests := []struct {
		path ContentPath
		want string
	}{
		{ContentPath{"grammar", "Intermediate"}, "grammarMaterials/Intermediate/lessons"},
		{ContentPath{"ielts", "IELTS READING", "Passage 1"}, "ieltsMaterials/Reading Passage 1/lessons"},
		{ContentPath{"IELTS", "IELTS WRITING", "Writing Task 2"}, "ieltsMaterials/Writing Task 2/lessons"},
		{ContentPath{"multilevel", "MULTI LEVEL LISTENING", "Part 6"}, "multilevelMaterials/Listening Part 6/lessons"},
	}
	for _, tt := range tests {
		got, err := tr.CollectionPath(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.True(t, tr.IsCollection(tt.path))
	}

	_, err := tr.CollectionPath(ContentPath{"ielts", "IELTS READING"})
	require.ErrorIs(t, err, app_errors.ErrInvalidSelection)
	assert.False(t, tr.IsCollection(ContentPath{"grammar"}))
}

func TestSplitCollection(t *testing.T) {
	t.Parallel()

	root, node, ok := SplitCollection("ieltsMaterials/Reading Passage 1/lessons")
	require.True(t, ok)
	assert.Equal(t, "ieltsMaterials", root)
	assert.Equal(t, "Reading Passage 1", node)

	_, _, ok = SplitCollection("ieltsMaterials/lessons")
	assert.False(t, ok)
}

func TestContentPathKey(t *testing.T) {
	t.Parallel()

	p := ContentPath{"ielts", "IELTS READING", "Passage 1"}
	assert.Equal(t, "ielts/IELTS READING/Passage 1", p.Key())
	assert.Equal(t, p, ParseKey(p.Key()))
	assert.True(t, p.Parent().Equal(ContentPath{"ielts", "IELTS READING"}))
	assert.Equal(t, 3, p.Depth())
}
