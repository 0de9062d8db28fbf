package cas_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-io/treeline/internal/cas"
)

func TestEncodeTreeRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []cas.TreeEntry{
		{Name: "zebra.txt", Kind: cas.KindFile, ID: "1111111111111111111111111111111111111111"},
		{Name: "bin", Kind: cas.KindTree, ID: "2222222222222222222222222222222222222222"},
		{Name: "run.sh", Kind: cas.KindExecutable, ID: "3333333333333333333333333333333333333333"},
		{Name: "link", Kind: cas.KindSymlink, ID: "4444444444444444444444444444444444444444"},
	}

	var buf bytes.Buffer

	require.NoError(t, cas.EncodeTree(&buf, entries))

	tree, err := cas.DecodeTree("deadbeef", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, cas.ObjectID("deadbeef"), tree.ID())
	require.Equal(t, 4, tree.Len())

	// Entries come back in byte order no matter the input order.
	names := make([]string, 0, tree.Len())
	for _, entry := range tree.Entries() {
		names = append(names, entry.Name)
	}

	assert.Equal(t, []string{"bin", "link", "run.sh", "zebra.txt"}, names)

	entry, ok := tree.Lookup("run.sh")
	require.True(t, ok)
	assert.Equal(t, cas.KindExecutable, entry.Kind)
	assert.Equal(t, cas.ObjectID("3333333333333333333333333333333333333333"), entry.ID)

	_, ok = tree.Lookup("missing")
	assert.False(t, ok)
}

func TestEncodeTreeIsDeterministic(t *testing.T) {
	t.Parallel()

	forward := []cas.TreeEntry{
		{Name: "a", Kind: cas.KindFile, ID: "aa11"},
		{Name: "b", Kind: cas.KindFile, ID: "bb22"},
	}
	backward := []cas.TreeEntry{
		{Name: "b", Kind: cas.KindFile, ID: "bb22"},
		{Name: "a", Kind: cas.KindFile, ID: "aa11"},
	}

	var first, second bytes.Buffer

	require.NoError(t, cas.EncodeTree(&first, forward))
	require.NoError(t, cas.EncodeTree(&second, backward))

	assert.Equal(t, first.String(), second.String())
}

func TestParseTreeEntry(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		line         string
		expectedErr  bool
		expectedKind cas.EntryKind
		expectedName string
	}{
		{
			name:         "regular file",
			line:         "100644 blob aa11\tREADME.md",
			expectedKind: cas.KindFile,
			expectedName: "README.md",
		},
		{
			name:         "name with spaces",
			line:         "100644 blob aa11\tmy notes file.txt",
			expectedKind: cas.KindFile,
			expectedName: "my notes file.txt",
		},
		{
			name:         "tree",
			line:         "040000 tree bb22\tsrc",
			expectedKind: cas.KindTree,
			expectedName: "src",
		},
		{
			name:         "short tree mode",
			line:         "40000 tree bb22\tsrc",
			expectedKind: cas.KindTree,
			expectedName: "src",
		},
		{
			name:         "executable",
			line:         "100755 blob cc33\tbuild.sh",
			expectedKind: cas.KindExecutable,
			expectedName: "build.sh",
		},
		{
			name:         "symlink",
			line:         "120000 blob dd44\tcurrent",
			expectedKind: cas.KindSymlink,
			expectedName: "current",
		},
		{name: "missing tab", line: "100644 blob aa11 README.md", expectedErr: true},
		{name: "missing name", line: "100644 blob aa11\t", expectedErr: true},
		{name: "too few fields", line: "100644 aa11\tREADME.md", expectedErr: true},
		{name: "unknown mode", line: "777777 blob aa11\tREADME.md", expectedErr: true},
		{name: "mode and type disagree", line: "100644 tree aa11\tREADME.md", expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			entry, err := cas.ParseTreeEntry(tc.line)
			if tc.expectedErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedKind, entry.Kind)
			assert.Equal(t, tc.expectedName, entry.Name)
		})
	}
}

func TestHashObjectMatchesGitBlobIDs(t *testing.T) {
	t.Parallel()

	// git hash-object of "hello\n".
	assert.Equal(t,
		cas.ObjectID("ce013625030ba8dba906f756967f9e9ca394464a"),
		cas.HashObject("blob", []byte("hello\n")))

	// The empty blob has a famous id.
	assert.Equal(t,
		cas.ObjectID("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"),
		cas.HashObject("blob", nil))
}

func TestEntryKind(t *testing.T) {
	t.Parallel()

	assert.True(t, cas.KindTree.IsTree())
	assert.False(t, cas.KindTree.IsFileLike())
	assert.True(t, cas.KindFile.IsFileLike())
	assert.True(t, cas.KindExecutable.IsFileLike())
	assert.True(t, cas.KindSymlink.IsFileLike())

	for _, kind := range []cas.EntryKind{cas.KindTree, cas.KindFile, cas.KindExecutable, cas.KindSymlink} {
		parsed, err := cas.KindForMode(kind.Mode())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := cas.KindForMode("160000")
	require.Error(t, err)
	assert.ErrorIs(t, err, cas.ErrUnknownKind)
}
