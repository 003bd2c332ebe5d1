package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordListGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, ok, err := s.Latest(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	first := pathmap.Table{"/": pathmap.Target("/", nil)}
	second := pathmap.Table{
		"/":            pathmap.Target("/", nil),
		"/posts/hello": pathmap.Target("/post", pathmap.Params{"slug": "hello"}),
	}
	r1, err := s.Record(ctx, first, "success")
	require.NoError(t, err)
	r2, err := s.Record(ctx, second, "success")
	require.NoError(t, err)
	require.NotEqual(t, r1.ID, r2.ID)
	require.Equal(t, second.Fingerprint(), r2.Fingerprint)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, r2.ID, runs[0].ID, "newest first")
	require.Equal(t, 2, runs[0].Routes)
	require.Equal(t, base.Add(2*time.Minute), runs[0].CreatedAt)
	require.Nil(t, runs[0].Table)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	got, err := s.Get(ctx, r1.ID)
	require.NoError(t, err)
	require.True(t, first.Equal(got.Table))

	latest, ok, err := s.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r2.ID, latest.ID)
	require.True(t, second.Equal(latest.Table))

	_, err = s.Get(ctx, "nope")
	require.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStore_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Record(context.Background(), pathmap.Table{}, "success")
	require.NoError(t, err)
	runs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Zero(t, runs[0].Routes)
}

func TestDiff(t *testing.T) {
	old := pathmap.Table{
		"/":        pathmap.Target("/", nil),
		"/about":   pathmap.Target("/about", nil),
		"/posts/a": pathmap.Target("/post", pathmap.Params{"slug": "a"}),
	}
	cur := pathmap.Table{
		"/":        pathmap.Target("/", nil),
		"/posts/a": pathmap.Target("/article", pathmap.Params{"slug": "a"}),
		"/posts/b": pathmap.Target("/post", pathmap.Params{"slug": "b"}),
	}

	d := Diff(old, cur)
	require.Equal(t, []string{"/posts/b"}, d.Added)
	require.Equal(t, []string{"/about"}, d.Removed)
	require.Equal(t, []string{"/posts/a"}, d.Changed)
	require.False(t, d.Empty())
	require.Equal(t, "+1 -1 ~1", d.String())

	require.True(t, Diff(cur, cur.Clone()).Empty())
}
