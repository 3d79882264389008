package dirtree

import (
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedChildren(t *testing.T, listing string) []string {
	t.Helper()
	if listing == "" {
		return nil
	}
	names := strings.Split(listing, ",")
	sort.Strings(names)
	return names
}

func TestListRootEmpty(t *testing.T) {
	tr := New()
	listing, err := tr.List("/")
	require.NoError(t, err)
	assert.Equal(t, "", listing)
}

func TestCreateAndListNested(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/a/b/"))

	listing, err := tr.List("/a/")
	require.NoError(t, err)
	assert.Equal(t, "b", listing)

	listing, err = tr.List("/")
	require.NoError(t, err)
	assert.Equal(t, "a", listing)
}

func TestCreateDuplicateAndRemove(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/x/"))
	assert.ErrorIs(t, tr.Create("/x/"), ErrAlreadyExists)
	require.NoError(t, tr.Remove("/x/"))
	assert.ErrorIs(t, tr.Remove("/x/"), ErrNotFound)
}

func TestRemoveNonEmptyThenChild(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/a/b/"))
	assert.ErrorIs(t, tr.Remove("/a/"), ErrNotEmpty)
	require.NoError(t, tr.Remove("/a/b/"))
	require.NoError(t, tr.Remove("/a/"))
}

func TestMoveBasic(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/b/"))
	require.NoError(t, tr.Create("/a/x/"))

	require.NoError(t, tr.Move("/a/x/", "/b/y/"))

	listing, err := tr.List("/a/")
	require.NoError(t, err)
	assert.Equal(t, "", listing)

	listing, err = tr.List("/b/")
	require.NoError(t, err)
	assert.Equal(t, "y", listing)
}

func TestMoveIntoOwnDescendantIsIllegal(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/a/b/"))
	assert.ErrorIs(t, tr.Move("/a/", "/a/b/c/"), ErrIllegalMove)
}

func TestMoveRenameInPlace(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/a/x/"))

	require.NoError(t, tr.Move("/a/x/", "/a/y/"))
	listing, err := tr.List("/a/")
	require.NoError(t, err)
	assert.Equal(t, "y", listing)
}

func TestMoveRoundTrip(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/b/"))
	require.NoError(t, tr.Create("/a/x/"))

	before, err := tr.List("/a/")
	require.NoError(t, err)

	require.NoError(t, tr.Move("/a/x/", "/b/x/"))
	require.NoError(t, tr.Move("/b/x/", "/a/x/"))

	after, err := tr.List("/a/")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBoundaryErrors(t *testing.T) {
	tr := New()
	assert.ErrorIs(t, tr.Remove("/"), ErrBusy)
	assert.ErrorIs(t, tr.Create("/"), ErrAlreadyExists)
	assert.ErrorIs(t, tr.Move("/", "/a/"), ErrBusy)

	require.NoError(t, tr.Create("/a/"))
	assert.ErrorIs(t, tr.Move("/a/", "/"), ErrAlreadyExists)
	assert.ErrorIs(t, tr.Move("/a/", "/a/"), ErrIllegalMove)
}

func TestInvalidPaths(t *testing.T) {
	tr := New()
	for _, p := range []string{"", "a", "/A/", "/a", "//", "/a//b/"} {
		_, err := tr.List(p)
		assert.ErrorIsf(t, err, ErrInvalidArgument, "path %q", p)
		assert.ErrorIsf(t, tr.Create(p), ErrInvalidArgument, "path %q", p)
	}
}

func TestConcurrentCreatesDistinctChildren(t *testing.T) {
	tr := New()
	const n = 100

	names := make([]string, n)
	for i := range names {
		names[i] = randomLowerName(i)
	}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, tr.Create("/"+name+"/"))
		}(name)
	}
	wg.Wait()

	listing, err := tr.List("/")
	require.NoError(t, err)
	assert.Equal(t, n, len(sortedChildren(t, listing)))
}

func randomLowerName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 0, 6)
	for i >= 0 {
		b = append(b, letters[i%26])
		i = i/26 - 1
	}
	return string(b)
}

func TestSizeCountsAllNodes(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Create("/a/"))
	require.NoError(t, tr.Create("/a/b/"))
	require.NoError(t, tr.Create("/c/"))
	assert.Equal(t, 4, tr.Size())
}
