package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pergerrors "github.com/Aman-CERP/perg/internal/errors"
)

func TestEscapeLiteral_EscapesEveryMetacharacter(t *testing.T) {
	assert.Equal(t, `\.\^\$\*\+\?\(\)\[\{\\\|`, EscapeLiteral(`.^$*+?()[{\|`))
	assert.Equal(t, "plain words", EscapeLiteral("plain words"))
}

func TestCompile_LiteralVersusRegex(t *testing.T) {
	tests := []struct {
		name    string
		term    string
		literal bool
		line    string
		want    bool
	}{
		{"literal dot matches dot", "a.b", true, "xx a.b yy", true},
		{"literal dot rejects other char", "a.b", true, "axb", false},
		{"regex dot matches dot", "a.b", false, "a.b", true},
		{"regex dot matches other char", "a.b", false, "axb", true},
		{"literal parens", "f(x)", true, "call f(x) now", true},
		{"literal alternation bar", "a|b", true, "a", false},
		{"literal alternation bar exact", "a|b", true, "a|b", true},
		{"literal backslash", `C:\dir`, true, `path C:\dir\file`, true},
		{"literal anchors", "^start$", true, "^start$", true},
		{"literal anchors not as anchors", "^start$", true, "start", false},
		{"literal brace quantifier", "x{2}", true, "xx", false},
		{"literal closing bracket", "a]b", true, "a]b", true},
		{"regex anchor", "^cat", false, "cats", true},
		{"regex anchor misses", "^cat", false, "a cat", false},
		{"regex lookahead", `cat(?=s)`, false, "cat cats", true},
		{"regex backreference", `(o)\1`, false, "good", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.term, tt.literal, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.HasMatch(tt.line))
		})
	}
}

func TestCompile_IgnoreCase(t *testing.T) {
	tests := []struct {
		name    string
		term    string
		literal bool
		line    string
	}{
		{"literal", "CAT", true, "a cat sat"},
		{"literal with metachar", "A.B", true, "x a.b y"},
		{"regex", "C[A-Z]T", false, "cat"},
		{"regex lower term upper line", "dog", false, "HOT DOG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensitive := MustCompile(tt.term, tt.literal, false)
			insensitive := MustCompile(tt.term, tt.literal, true)

			assert.False(t, sensitive.HasMatch(tt.line))
			assert.True(t, insensitive.HasMatch(tt.line))
			assert.True(t, insensitive.IgnoreCase())
		})
	}
}

func TestCompile_ECMAScriptFlavorCombinesWithIgnoreCase(t *testing.T) {
	// Given: a class that is ASCII-only in ECMAScript mode, compiled with -i
	p, err := Compile(`^C\w+$`, false, true)
	require.NoError(t, err)

	// Then: case folding applies and \w does not match non-ASCII letters
	assert.True(t, p.HasMatch("cats"))
	assert.True(t, p.HasMatch("CATS_2"))
	assert.False(t, p.HasMatch("cäts"))
}

func TestCompile_ECMAScriptLookaheadAndBackreference(t *testing.T) {
	lookahead := MustCompile(`a(?=b)`, false, false)
	span, ok := lookahead.FindFirst("ac ab")
	require.True(t, ok)
	assert.Equal(t, Span{Start: 3, Length: 1}, span)

	backref := MustCompile(`(o)\1`, false, false)
	assert.True(t, backref.HasMatch("foo"))
	assert.False(t, backref.HasMatch("fob"))
}

func TestCompile_InvalidRegex(t *testing.T) {
	for _, term := range []string{"(", "a[b", "*x", "a(?<name"} {
		t.Run(term, func(t *testing.T) {
			// When: compiling a malformed expression
			p, err := Compile(term, false, false)

			// Then: a pattern error is returned, not a panic
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, pergerrors.ErrInvalidPattern))
		})
	}
}

func TestCompile_InvalidRegexIsFineInLiteralMode(t *testing.T) {
	p, err := Compile("a[b(", true, false)
	require.NoError(t, err)
	assert.True(t, p.HasMatch("xa[b(y"))
	assert.True(t, p.Literal())
	assert.Equal(t, "a[b(", p.Term())
}

func TestFindFirst_ReturnsLeftmostMatch(t *testing.T) {
	p := MustCompile("cat", true, false)

	span, ok := p.FindFirst("dog cat cat")

	require.True(t, ok)
	assert.Equal(t, Span{Start: 4, Length: 3}, span)
}

func TestFindFirst_NoMatch(t *testing.T) {
	p := MustCompile("cat", true, false)

	_, ok := p.FindFirst("dog")

	assert.False(t, ok)
}

func TestFindFirst_ByteOffsetsWithMultibyteText(t *testing.T) {
	// Given: a line where the match follows multi-byte characters
	line := "héllo wörld"
	p := MustCompile("wörld", true, false)

	// When: finding the match
	span, ok := p.FindFirst(line)

	// Then: the span is in bytes and slices the line exactly
	require.True(t, ok)
	assert.Equal(t, "wörld", line[span.Start:span.Start+span.Length])
}

func TestFindFirst_InvalidUTF8(t *testing.T) {
	line := "a\xffb cat"
	p := MustCompile("cat", true, false)

	span, ok := p.FindFirst(line)

	require.True(t, ok)
	assert.Equal(t, "cat", line[span.Start:span.Start+span.Length])
}

func TestFindFirst_MatchAtEndAndEmptyMatch(t *testing.T) {
	line := "abc"

	end := MustCompile("c$", false, false)
	span, ok := end.FindFirst(line)
	require.True(t, ok)
	assert.Equal(t, Span{Start: 2, Length: 1}, span)

	empty := MustCompile("x*", false, false)
	span, ok = empty.FindFirst(line)
	require.True(t, ok)
	assert.Equal(t, Span{Start: 0, Length: 0}, span)
}

func TestPattern_ConcurrentUse(t *testing.T) {
	p := MustCompile("ca+t", false, true)
	done := make(chan bool)

	for i := 0; i < 8; i++ {
		go func() {
			ok := true
			for j := 0; j < 200; j++ {
				ok = ok && p.HasMatch("the CAAAT sat")
				_, found := p.FindFirst("no match here")
				ok = ok && !found
			}
			done <- ok
		}()
	}

	for i := 0; i < 8; i++ {
		assert.True(t, <-done)
	}
}
