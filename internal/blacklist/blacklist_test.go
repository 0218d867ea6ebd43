package blacklist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcherMatches(t *testing.T) {
	m, err := Compile(map[string]bool{
		"/neos.*":    true,
		"^/api/v\\d": true,
		"/inactive":  false,
	})
	require.NoError(t, err)

	cases := []struct {
		path string
		want bool
	}{
		{"/neos/test", true},
		{"/de/neos/TEST", true},
		{"/NEOS/test", false},
		{"/api/v2/users", true},
		{"/shop/api/v2", false},
		{"/inactive/page", false},
		{"/plain", false},
		{"", false},
	}

	for _, tt := range cases {
		require.Equal(t, tt.want, m.Matches(tt.path), "path %q", tt.path)
	}
}

func TestMatcherReportsFirstPatternInLexicalOrder(t *testing.T) {
	m := MustCompile(map[string]bool{
		"neos":    true,
		"/neos.*": true,
	})

	pattern, ok := m.Match("/neos/test")
	require.True(t, ok)
	require.Equal(t, "/neos.*", pattern)
}

func TestCompileRejectsInvalidPatterns(t *testing.T) {
	_, err := Compile(map[string]bool{
		"(unclosed": true,
		"[a-":       false,
		"":          true,
		"/ok":       true,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"(unclosed"`)
	require.Contains(t, err.Error(), `"[a-"`)
	require.Contains(t, err.Error(), "pattern is empty")
}

func TestEmptyRulesNeverMatch(t *testing.T) {
	ok, err := Matches("/anything", nil)
	require.NoError(t, err)
	require.False(t, ok)

	m, err := Compile(map[string]bool{})
	require.NoError(t, err)
	require.False(t, m.Matches("/anything"))

	var nilMatcher *Matcher
	require.False(t, nilMatcher.Matches("/anything"))
	require.Nil(t, nilMatcher.Rules())
}

func TestMatchesOneShot(t *testing.T) {
	ok, err := Matches("/neos/test", map[string]bool{"neos.*": true})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Matches("/neos/test", map[string]bool{"(": true})
	require.Error(t, err)
}

func TestRulesKeepsInactiveEntries(t *testing.T) {
	m := MustCompile(map[string]bool{"b": false, "a": true})
	rules := m.Rules()
	require.Len(t, rules, 2)
	require.Equal(t, "a", rules[0].Pattern)
	require.True(t, rules[0].Active)
	require.Equal(t, "b", rules[1].Pattern)
	require.False(t, rules[1].Active)
}
