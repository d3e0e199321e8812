package v1

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const corpusLines = "the king rules the land\nthe queen rules the land\nthe dog eats the bone\nthe cat eats the fish\n"

func setupClientTest(t *testing.T, opts ...Option) (*Client, string) {
	t.Helper()
	corpus := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(corpus, []byte(strings.Repeat(corpusLines, 10)), 0644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}

	base := []Option{
		WithDimension(8),
		WithEpochs(1),
		WithThreads(1),
		WithMinCount(1),
		WithSeed(3),
		WithTableSize(10_000),
	}
	client, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, corpus
}

func TestClientBuildVocab(t *testing.T) {
	client, corpus := setupClientTest(t)

	entries, err := client.BuildVocab(context.Background(), corpus)
	if err != nil {
		t.Fatalf("build vocab: %v", err)
	}

	if len(entries) != 11 {
		t.Fatalf("expected 11 entries, got %d", len(entries))
	}
	if entries[0].Token != "</s>" || entries[0].Count != 40 {
		t.Errorf("first entry = %+v, want </s> 40", entries[0])
	}
	if entries[1].Token != "the" || entries[1].Count != 80 {
		t.Errorf("second entry = %+v, want the 80", entries[1])
	}
}

func TestClientTrainWords(t *testing.T) {
	client, corpus := setupClientTest(t, WithModel("skipgram"), WithHierarchicalSoftmax(true), WithNegative(0))

	res, err := client.Train(context.Background(), corpus)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	if res.Model != "skipgram" || res.Dim != 8 || res.Paragraphs != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Tokens()) != 11 {
		t.Errorf("expected 11 rows, got %d", len(res.Tokens()))
	}
	vec, ok := res.Vector("king")
	if !ok || len(vec) != 8 {
		t.Fatalf("vector for king: ok=%v len=%d", ok, len(vec))
	}
	if _, ok := res.Vector("emperor"); ok {
		t.Error("unexpected vector for unseen token")
	}
}

func TestClientTrainParagraphs(t *testing.T) {
	client, corpus := setupClientTest(t, WithModel("pvdm"), WithNegative(2))

	res, err := client.Train(context.Background(), corpus)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	if res.Paragraphs != 40 {
		t.Errorf("expected 40 paragraphs, got %d", res.Paragraphs)
	}
	if _, ok := res.ParagraphVector(39); !ok {
		t.Error("missing vector for last paragraph")
	}
	if _, ok := res.ParagraphVector(40); ok {
		t.Error("unexpected vector past the last paragraph")
	}
}

func TestClientSaveAndQuery(t *testing.T) {
	client, corpus := setupClientTest(t, WithModel("cbow"))
	ctx := context.Background()

	res, err := client.Train(ctx, corpus)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	path := filepath.Join(t.TempDir(), "vectors.bin")
	if err := res.Save(path, "binary"); err != nil {
		t.Fatalf("save: %v", err)
	}

	hits, err := client.Similar(ctx, path, "binary", "queen", 3)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.Token == "queen" {
			t.Error("query returned as its own neighbour")
		}
	}

	classes, err := client.Classes(ctx, path, "binary", 2)
	if err != nil {
		t.Fatalf("classes: %v", err)
	}
	if len(classes) != 11 {
		t.Errorf("expected 11 classified tokens, got %d", len(classes))
	}
}

func TestClientConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w2v.yaml")
	if err := os.WriteFile(path, []byte("training:\n  model: pvdbow\n  dim: 16\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	client, err := New(WithConfig(path), WithDimension(4))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.cfg.Training.Model != "pvdbow" {
		t.Errorf("model = %q, want pvdbow", client.cfg.Training.Model)
	}
	// options win over the file
	if client.cfg.Training.Dim != 4 {
		t.Errorf("dim = %d, want 4", client.cfg.Training.Dim)
	}
}

func TestClientInvalidOptions(t *testing.T) {
	if _, err := New(WithModel("glove")); err == nil {
		t.Error("expected error for unknown model")
	}
	if _, err := New(WithDimension(0)); err == nil {
		t.Error("expected error for zero dimension")
	}
	if _, err := New(WithHierarchicalSoftmax(false), WithNegative(0)); err == nil {
		t.Error("expected error with no objective")
	}
}

func TestClientTrainMissingCorpus(t *testing.T) {
	client, _ := setupClientTest(t)

	if _, err := client.Train(context.Background(), filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing corpus")
	}
}

func TestClientHasNothingToClose(t *testing.T) {
	client, _ := setupClientTest(t)
	if _, ok := any(client).(io.Closer); ok {
		t.Error("client implements io.Closer but holds no resources")
	}
}
