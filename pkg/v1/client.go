package v1

import (
	"context"
	"fmt"
	"io"

	"github.com/4thel00z/w2v/internal"
)

// Client trains and queries word and paragraph vectors. It keeps no files or
// goroutines open between calls, so there is nothing to close.
type Client struct {
	cfg        internal.Config
	buildVocab *internal.BuildVocabUseCase
	train      *internal.TrainUseCase
	similar    *internal.SimilarUseCase
	classes    *internal.ClassesUseCase
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{
		logOut:   io.Discard,
		logLevel: "info",
	}
	for _, opt := range opts {
		opt(cc)
	}

	cfg, err := internal.LoadConfig(cc.configPath)
	if err != nil {
		return nil, err
	}
	var s settings
	for _, f := range cc.apply {
		f(&s)
	}
	s.applyTo(cfg)

	if err := cfg.Training.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	log := internal.NewLogger(cc.logOut, cc.logLevel)
	return &Client{
		cfg:        *cfg,
		buildVocab: internal.NewBuildVocabUseCase(log),
		train:      internal.NewTrainUseCase(log),
		similar:    internal.NewSimilarUseCase(log),
		classes:    internal.NewClassesUseCase(log),
	}, nil
}

func (s *settings) applyTo(cfg *internal.Config) {
	t := &cfg.Training
	if s.model != "" {
		t.Model = s.model
	}
	setIf(&t.Dim, s.dim)
	setIf(&t.Window, s.window)
	setIf(&t.Epochs, s.epochs)
	setIf(&t.Threads, s.threads)
	setIf(&t.Negative, s.negative)
	setIf(&t.HS, s.hs)
	setIf(&t.Seed, s.seed)
	setIf(&t.Sample, s.sample)
	setIf(&t.Alpha, s.alpha)
	setIf(&t.RandomWindow, s.randomWindow)
	setIf(&t.TableSize, s.tableSize)
	setIf(&cfg.Vocab.MinCount, s.minCount)
	setIf(&cfg.Vocab.Lowercase, s.lowercase)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// BuildVocab counts the tokens of a corpus file, most frequent first. The
// end-of-sentence marker is always the first entry.
func (c *Client) BuildVocab(ctx context.Context, corpus string) ([]VocabEntry, error) {
	out, err := c.buildVocab.Execute(ctx, internal.BuildVocabInput{
		Corpus: corpus, Vocab: c.cfg.Vocab,
	})
	if err != nil {
		return nil, fmt.Errorf("build vocab: %w", err)
	}

	entries := make([]VocabEntry, 0, out.Entries)
	for _, e := range out.Vocab.Entries() {
		entries = append(entries, VocabEntry{Token: e.Key, Count: e.Count})
	}
	return entries, nil
}

// Train learns vectors from a corpus file with one sentence or paragraph per
// line.
func (c *Client) Train(ctx context.Context, corpus string) (*Result, error) {
	out, err := c.train.Execute(ctx, internal.TrainInput{
		Corpus: corpus, Config: c.cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	return &Result{
		Model:      string(out.Model.Type),
		Dim:        out.Model.Dim,
		Paragraphs: out.Model.Paragraphs,
		WordsSeen:  out.WordsSeen,
		vectors:    out.Model.Vectors(out.Vocab),
	}, nil
}

// Similar returns the k nearest tokens to token in a saved vectors file.
func (c *Client) Similar(ctx context.Context, vectors, format, token string, k int) ([]SearchResult, error) {
	out, err := c.similar.Execute(ctx, internal.SimilarInput{
		Vectors: vectors, Format: format, Query: token, K: k,
	})
	if err != nil {
		return nil, fmt.Errorf("similar: %w", err)
	}

	results := make([]SearchResult, 0, len(out.Neighbors))
	for _, n := range out.Neighbors {
		results = append(results, SearchResult{Token: n.Token, Score: n.Score})
	}
	return results, nil
}

// Classes clusters a saved vectors file into k classes.
func (c *Client) Classes(ctx context.Context, vectors, format string, k int) (map[string]int, error) {
	out, err := c.classes.Execute(ctx, internal.ClassesInput{
		Vectors: vectors, Format: format, K: k,
	})
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}

	classes := make(map[string]int, len(out.Tokens))
	for i, tok := range out.Tokens {
		classes[tok] = out.Classes[i]
	}
	return classes, nil
}
