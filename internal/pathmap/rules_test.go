package pathmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginateRule(t *testing.T) {
	tests := []struct {
		name    string
		entries int
		perPage int
		want    []string
	}{
		{"no entries", 0, 10, nil},
		{"single page", 10, 10, nil},
		{"one extra", 11, 10, []string{"/blog/page/2"}},
		{"three pages", 25, 10, []string{"/blog/page/2", "/blog/page/3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slugs := make(SlugList, tt.entries)
			for i := range slugs {
				slugs[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
			}
			rule := PaginateRule{RuleName: "blog", Prefix: "/blog/page", Page: "/blog", Param: "page", PerPage: tt.perPage, Source: slugs}

			got, err := Resolve(Table{}, Pages("/blog"), rule)
			require.NoError(t, err)
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got.Paths())
			require.Equal(t, "2", got["/blog/page/2"].Params["page"])
		})
	}
}

func TestPaginateRule_RejectsNonPositivePerPage(t *testing.T) {
	_, err := Resolve(Table{}, Pages("/blog"), PaginateRule{RuleName: "blog", Prefix: "/blog", Page: "/blog", Param: "page"})
	require.Error(t, err)
}

func TestContentRule_NestedSlugs(t *testing.T) {
	got, err := Resolve(Table{}, Pages("/doc"), ContentRule{
		RuleName: "docs", Prefix: "/docs", Page: "/doc", Param: "slug",
		Source: SlugList{"guides/intro"},
	})
	require.NoError(t, err)
	require.Equal(t, Params{"slug": "guides/intro"}, got["/docs/guides/intro"].Params)
}

func TestContentRule_RootPrefix(t *testing.T) {
	got, err := Resolve(Table{}, Pages("/page"), ContentRule{
		RuleName: "pages", Prefix: "/", Page: "/page", Param: "slug", Source: SlugList{"hello"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"/hello"}, got.Paths())
}

func TestContentRule_OverridePolicy(t *testing.T) {
	defaults := Table{"/posts/a": {Page: "/posts/a", Params: Params{}}}
	rule := ContentRule{RuleName: "posts", Prefix: "/posts", Page: "/post", Param: "slug", Source: SlugList{"a"}}

	_, err := Resolve(defaults, Pages("/posts/a", "/post"), rule)
	require.ErrorIs(t, err, ErrDuplicatePath)

	rule.Policy = Replace
	got, err := Resolve(defaults, Pages("/posts/a", "/post"), rule)
	require.NoError(t, err)
	require.Equal(t, "/post", got["/posts/a"].Page)
}

func TestBuilder_OriginTracking(t *testing.T) {
	b, err := NewBuilder(Table{"/": {Page: "/"}}, Pages("/", "/post"))
	require.NoError(t, err)
	require.NoError(t, b.Add("posts", "/posts/a", Target("/post", Params{"slug": "a"})))

	require.Equal(t, OriginDefault, b.Origin("/"))
	require.Equal(t, "posts", b.Origin("/posts/a"))
	require.True(t, b.Remove("/posts/a"))
	require.False(t, b.Remove("/posts/a"))
	require.Equal(t, "", b.Origin("/posts/a"))
}

func TestBuilder_GetReturnsCopy(t *testing.T) {
	b, err := NewBuilder(Table{"/": {Page: "/", Params: Params{"k": "v"}}}, nil)
	require.NoError(t, err)

	got, ok := b.Get("/")
	require.True(t, ok)
	got.Params["k"] = "changed"

	again, _ := b.Get("/")
	require.Equal(t, "v", again.Params["k"])
}
