package pathmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"/", true},
		{"/about", true},
		{"/posts/my-post", true},
		{"", false},
		{"about", false},
		{"/about/", false},
		{"/a//b", false},
		{"/a/../b", false},
		{"/a/./b", false},
		{"/a?b=1", false},
		{"/a#top", false},
		{"/a/*", false},
		{"/a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			reason := ValidatePath(tt.path)
			if tt.valid {
				require.Empty(t, reason)
			} else {
				require.NotEmpty(t, reason)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"":                    "/",
		"/":                   "/",
		"/index.html":         "/",
		"/posts/a/":           "/posts/a",
		"posts/a":             "/posts/a",
		"/posts/a.html":       "/posts/a",
		"/posts/a/index.html": "/posts/a",
		"/posts/a?x=1":        "/posts/a",
	}
	for in, want := range tests {
		require.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestJoinPath(t *testing.T) {
	require.Equal(t, "/posts/a", JoinPath("/posts", "a"))
	require.Equal(t, "/posts/a", JoinPath("posts/", "a"))
	require.Equal(t, "/a", JoinPath("/", "a"))
}

func TestTable_FingerprintIgnoresNilVersusEmptyParams(t *testing.T) {
	a := Table{"/": {Page: "/"}, "/posts/a": {Page: "/post", Params: Params{"slug": "a"}}}
	b := Table{"/posts/a": {Page: "/post", Params: Params{"slug": "a"}}, "/": {Page: "/", Params: Params{}}}

	require.True(t, a.Equal(b))
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	b["/posts/a"] = RenderTarget{Page: "/post", Params: Params{"slug": "b"}}
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestTable_CloneIsDeep(t *testing.T) {
	orig := Table{"/posts/a": {Page: "/post", Params: Params{"slug": "a"}}}
	c := orig.Clone()
	c["/posts/a"].Params["slug"] = "z"
	require.Equal(t, "a", orig["/posts/a"].Params["slug"])
}

func TestTable_Pages(t *testing.T) {
	tbl := Table{
		"/":        {Page: "/"},
		"/posts/a": {Page: "/post"},
		"/posts/b": {Page: "/post"},
	}
	require.Equal(t, []string{"/", "/post"}, tbl.Pages())
}

func TestTable_JSONShape(t *testing.T) {
	tbl := Table{"/posts/a": {Page: "/post", Params: Params{"slug": "a"}}}
	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	require.JSONEq(t, `{"/posts/a":{"page":"/post","params":{"slug":"a"}}}`, string(data))

	var back Table
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, back.Equal(tbl))
}

func TestParams_String(t *testing.T) {
	require.Equal(t, "{a=1, b=2}", Params{"b": "2", "a": "1"}.String())
	require.Equal(t, "{}", Params(nil).String())
}
