package gitignore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treeline-io/treeline/internal/gitignore"
)

func newMatcher(t *testing.T, content string) *gitignore.Matcher {
	t.Helper()

	return gitignore.NewMatcher(gitignore.Compile([]byte(content)), false)
}

func TestStackEmpty(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false)

	assert.Equal(t, gitignore.NoMatch, stack.Match("any/path.txt", gitignore.TypeFile))
	assert.False(t, stack.CaseInsensitive())
}

func TestStackDeepestLevelWins(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false).
		Push("", newMatcher(t, "*.log\n")).
		Push("sub", newMatcher(t, "!debug.log\n"))

	assert.Equal(t, gitignore.Include, stack.Match("sub/debug.log", gitignore.TypeFile))
	assert.Equal(t, gitignore.Exclude, stack.Match("sub/other.log", gitignore.TypeFile))
	assert.Equal(t, gitignore.NoMatch, stack.Match("sub/readme.md", gitignore.TypeFile))
}

func TestStackRebasesPathsOntoLevelDirectory(t *testing.T) {
	t.Parallel()

	// An anchored rule binds to the directory holding its ignore file.
	stack := gitignore.NewStack(false).
		Push("", newMatcher(t, "")).
		Push("a", newMatcher(t, "/build\n"))

	assert.Equal(t, gitignore.Exclude, stack.Match("a/build", gitignore.TypeDir))
	assert.Equal(t, gitignore.NoMatch, stack.Match("a/x/build", gitignore.TypeDir))
}

func TestStackGlobalsRunLast(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false).
		PushGlobal(newMatcher(t, "*.tmp\n")).
		Push("", newMatcher(t, "!keep.tmp\n"))

	assert.Equal(t, gitignore.Include, stack.Match("keep.tmp", gitignore.TypeFile))
	assert.Equal(t, gitignore.Exclude, stack.Match("scratch.tmp", gitignore.TypeFile))
}

func TestStackGlobalsSeeFullPath(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false).
		PushGlobal(newMatcher(t, "/top\n"))

	assert.Equal(t, gitignore.Exclude, stack.Match("top", gitignore.TypeDir))
	assert.Equal(t, gitignore.NoMatch, stack.Match("nested/top", gitignore.TypeDir))
}

func TestStackGlobalReversePushOrder(t *testing.T) {
	t.Parallel()

	// The level pushed last is consulted first, so the caller pushes the
	// weakest level first.
	stack := gitignore.NewStack(false).
		PushGlobal(newMatcher(t, "*.bak\n")).
		PushGlobal(newMatcher(t, "!precious.bak\n"))

	assert.Equal(t, gitignore.Include, stack.Match("precious.bak", gitignore.TypeFile))
	assert.Equal(t, gitignore.Exclude, stack.Match("old.bak", gitignore.TypeFile))
}

func TestStackReservedNames(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false)

	assert.Equal(t, gitignore.Hidden, stack.Match(".git", gitignore.TypeDir))
	assert.Equal(t, gitignore.Hidden, stack.Match(".hg", gitignore.TypeDir))
	assert.Equal(t, gitignore.Hidden, stack.Match("a/b/.git", gitignore.TypeDir))
	assert.Equal(t, gitignore.NoMatch, stack.Match(".gitignore", gitignore.TypeFile))
	assert.Equal(t, gitignore.NoMatch, stack.Match("x.git", gitignore.TypeDir))
	assert.Equal(t, gitignore.NoMatch, stack.Match(".GIT", gitignore.TypeDir))
}

func TestStackReservedNamesNotOverridable(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(false).
		PushGlobal(newMatcher(t, "!.git\n")).
		Push("", newMatcher(t, "!.git\n"))

	assert.Equal(t, gitignore.Hidden, stack.Match(".git", gitignore.TypeDir))
}

func TestStackReservedNamesCaseInsensitive(t *testing.T) {
	t.Parallel()

	stack := gitignore.NewStack(true)

	assert.True(t, stack.CaseInsensitive())
	assert.Equal(t, gitignore.Hidden, stack.Match(".GIT", gitignore.TypeDir))
	assert.Equal(t, gitignore.Hidden, stack.Match("sub/.Hg", gitignore.TypeDir))
}

func TestStackPushLeavesParentUntouched(t *testing.T) {
	t.Parallel()

	parent := gitignore.NewStack(false).
		Push("", newMatcher(t, "*.log\n"))

	left := parent.Push("left", newMatcher(t, "!left.log\n"))
	right := parent.Push("right", newMatcher(t, "!right.log\n"))

	assert.Equal(t, gitignore.Include, left.Match("left/left.log", gitignore.TypeFile))
	assert.Equal(t, gitignore.Exclude, left.Match("left/right.log", gitignore.TypeFile))

	assert.Equal(t, gitignore.Include, right.Match("right/right.log", gitignore.TypeFile))
	assert.Equal(t, gitignore.Exclude, right.Match("right/left.log", gitignore.TypeFile))

	assert.Equal(t, gitignore.Exclude, parent.Match("left.log", gitignore.TypeFile))
}

func TestIsReservedName(t *testing.T) {
	t.Parallel()

	assert.True(t, gitignore.IsReservedName(".git", false))
	assert.True(t, gitignore.IsReservedName(".hg", false))
	assert.False(t, gitignore.IsReservedName(".GIT", false))
	assert.True(t, gitignore.IsReservedName(".GIT", true))
	assert.False(t, gitignore.IsReservedName(".svn", false))
	assert.False(t, gitignore.IsReservedName("git", true))
}
