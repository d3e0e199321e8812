package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestVocab(t *testing.T, corpus string, minCount uint64) *Vocabulary {
	t.Helper()
	v, err := BuildVocabulary(strings.NewReader(corpus), VocabConfig{MinCount: minCount}, NopLogger())
	require.NoError(t, err)
	return v
}

func TestNewVocabularyHasMarker(t *testing.T) {
	v := NewVocabulary()
	require.Equal(t, 1, v.Len())
	assert.Equal(t, EndOfSentence, v.Marker().Key)
	assert.Equal(t, EntrySpecial, v.Marker().Type)
	assert.Equal(t, 0, v.Marker().Index)
	assert.Equal(t, 0, v.Marker().ID)
}

func TestBuildVocabulary(t *testing.T) {
	v := buildTestVocab(t, "the cat sat\nthe dog\n", 1)

	require.Equal(t, 5, v.Len())
	assert.Equal(t, uint64(7), v.TrainWords())
	assert.Equal(t, uint64(2), v.Marker().Count)

	keys := make([]string, 0, v.Len())
	for _, e := range v.Entries() {
		keys = append(keys, e.Key)
	}
	// ties keep insertion order
	assert.Equal(t, []string{EndOfSentence, "the", "cat", "sat", "dog"}, keys)

	e, ok := v.Get("the")
	require.True(t, ok)
	assert.Equal(t, uint64(2), e.Count)
	assert.Equal(t, 1, e.Index)
	assert.True(t, v.Encoded())
}

func TestBuildVocabularyMinCount(t *testing.T) {
	v := buildTestVocab(t, "the cat sat\nthe dog\n", 2)

	require.Equal(t, 2, v.Len())
	_, ok := v.Get("cat")
	assert.False(t, ok)
	_, ok = v.Get("the")
	assert.True(t, ok)
}

func TestBuildVocabularyLowercase(t *testing.T) {
	v, err := BuildVocabulary(strings.NewReader("The THE the\n"), VocabConfig{MinCount: 1, Lowercase: true}, NopLogger())
	require.NoError(t, err)

	assert.True(t, v.Folded)
	e, ok := v.Get("the")
	require.True(t, ok)
	assert.Equal(t, uint64(3), e.Count)
	_, ok = v.Get("The")
	assert.False(t, ok)
}

func TestBuildVocabularyTabEndsLine(t *testing.T) {
	v := buildTestVocab(t, "a b\tc d\n", 1)
	assert.Equal(t, uint64(2), v.Marker().Count)
}

func TestBuildVocabularyMaxSize(t *testing.T) {
	// every rare word is dropped by the in-scan reduction
	corpus := "x a\nx b\nx c\nx d\nx e\n"
	v, err := BuildVocabulary(strings.NewReader(corpus), VocabConfig{MinCount: 1, MaxSize: 3}, NopLogger())
	require.NoError(t, err)

	assert.LessOrEqual(t, v.Len(), 3)
	e, ok := v.Get("x")
	require.True(t, ok)
	assert.Equal(t, uint64(5), e.Count)
}

func TestVocabularyReduce(t *testing.T) {
	v := NewVocabulary()
	v.Add("a", 1)
	v.Add("b", 3)
	v.Add("c", 2)

	v.reduce()
	_, ok := v.Get("a")
	assert.False(t, ok)
	assert.Equal(t, uint64(2), v.minReduce)
	assert.Equal(t, 3, v.Len())

	v.reduce()
	_, ok = v.Get("c")
	assert.False(t, ok)
	_, ok = v.Get("b")
	assert.True(t, ok)
	assert.Equal(t, EndOfSentence, v.Marker().Key)
}

func TestPruneKeepsIndexInvariants(t *testing.T) {
	v := NewVocabulary()
	for i, w := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		v.Add(w, uint64(i+1))
	}
	v.Marker().Count = 1

	require.NoError(t, v.Prune(3))

	require.Equal(t, 6, v.Len())
	assert.Equal(t, EndOfSentence, v.Entry(0).Key)
	for i := 0; i < v.Len(); i++ {
		assert.Equal(t, i, v.Entry(i).Index)
		e, ok := v.Get(v.Entry(i).Key)
		require.True(t, ok)
		assert.Equal(t, i, e.Index)
	}
	for i := 2; i < v.Len(); i++ {
		assert.GreaterOrEqual(t, v.Entry(i-1).Count, v.Entry(i).Count)
	}
}

func TestPruneNeverDropsMarker(t *testing.T) {
	v := NewVocabulary()
	v.Add("a", 10)

	require.NoError(t, v.Prune(100))
	require.Equal(t, 1, v.Len())
	assert.Equal(t, EndOfSentence, v.Marker().Key)
}

func TestSortMarkerPinned(t *testing.T) {
	v := NewVocabulary()
	v.Marker().Count = 1000
	v.Add("rare", 1)
	v.Add("common", 50)

	v.Sort()
	assert.Equal(t, EndOfSentence, v.Entry(0).Key)
	assert.Equal(t, "common", v.Entry(1).Key)
	assert.Equal(t, "rare", v.Entry(2).Key)
	assert.False(t, v.Encoded())
}

func TestParagraph(t *testing.T) {
	v := buildTestVocab(t, "a b\n", 1)

	p := v.Paragraph(2)
	assert.Equal(t, EntryParagraph, p.Type)
	assert.Equal(t, v.Len()+2, p.Index)
	assert.Equal(t, "_*2", ParagraphKey(2))
}

func TestEntryTypeString(t *testing.T) {
	assert.Equal(t, "word", EntryWord.String())
	assert.Equal(t, "paragraph", EntryParagraph.String())
	assert.Equal(t, "special", EntrySpecial.String())
}

func TestSaveAndLoadVocab(t *testing.T) {
	v := buildTestVocab(t, "the cat sat\nthe dog\nthe cat\n", 1)

	var buf bytes.Buffer
	require.NoError(t, SaveVocab(&buf, v))
	assert.True(t, strings.HasPrefix(buf.String(), "</s> 3\nthe 3\ncat 2\n"))

	loaded, err := LoadVocab(&buf, false)
	require.NoError(t, err)
	require.Equal(t, v.Len(), loaded.Len())
	assert.True(t, loaded.Encoded())
	for i := 0; i < v.Len(); i++ {
		assert.Equal(t, v.Entry(i).Key, loaded.Entry(i).Key)
		assert.Equal(t, v.Entry(i).Count, loaded.Entry(i).Count)
		assert.Equal(t, v.Entry(i).Code, loaded.Entry(i).Code)
	}
}

func TestLoadVocabMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing count", "</s> 1\nword\n"},
		{"bad count", "</s> 1\nword many\n"},
		{"extra field", "</s> 1\nword 1 2\n"},
		{"negative count", "</s> 1\nword -3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadVocab(strings.NewReader(tt.input), false)
			require.ErrorIs(t, err, ErrMalformedVocab)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestLoadVocabEmpty(t *testing.T) {
	_, err := LoadVocab(strings.NewReader("\n\n"), false)
	assert.ErrorIs(t, err, ErrEmptyVocab)
}

func TestBuildVocabularyHugeLine(t *testing.T) {
	if testing.Short() {
		t.Skip("reads 68 MB")
	}
	const pairs = 17 << 20
	v, err := BuildVocabulary(&repeatReader{text: "a b ", n: 4 * pairs}, VocabConfig{MinCount: 1}, NopLogger())
	require.NoError(t, err)

	a, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, uint64(pairs), a.Count)
	assert.Equal(t, uint64(1), v.Marker().Count)
}
