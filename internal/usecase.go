package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Use case input/output DTOs

type BuildVocabInput struct {
	Corpus string
	Output string
	Vocab  VocabConfig
}

type BuildVocabOutput struct {
	Vocab      *Vocabulary
	Entries    int
	TrainWords uint64
}

type PruneVocabInput struct {
	Input     string
	Output    string
	MinCount  uint64
	Lowercase bool
}

type PruneVocabOutput struct {
	Before int
	After  int
}

type TrainInput struct {
	Corpus    string
	VocabPath string
	SaveVocab string
	Output    string
	Config    Config
	// Previous, when set, seeds the model with the rows of an earlier run
	Previous *TrainOutput
}

type TrainOutput struct {
	Vocab     *Vocabulary
	Model     *Model
	WordsSeen int64
}

type SimilarInput struct {
	Vectors  string
	Format   string
	Query    string
	K        int
	IndexDir string
	Trees    int
}

type SimilarOutput struct {
	Query     string
	Neighbors []Neighbor
}

type ClassesInput struct {
	Vectors    string
	Format     string
	K          int
	Iterations int
}

type ClassesOutput struct {
	Tokens  []string
	Classes []int
}

// Use cases

type BuildVocabUseCase struct {
	log *Logger
}

func NewBuildVocabUseCase(log *Logger) *BuildVocabUseCase {
	return &BuildVocabUseCase{log: log}
}

func (uc *BuildVocabUseCase) Execute(ctx context.Context, input BuildVocabInput) (*BuildVocabOutput, error) {
	v, err := learnVocab(input.Corpus, input.Vocab, uc.log)
	if err != nil {
		return nil, err
	}

	if input.Output != "" {
		if err := saveVocabFile(input.Output, v); err != nil {
			return nil, err
		}
		uc.log.Info("vocabulary saved to %s", input.Output)
	}

	return &BuildVocabOutput{
		Vocab:      v,
		Entries:    v.Len(),
		TrainWords: v.TrainWords(),
	}, nil
}

type PruneVocabUseCase struct {
	log *Logger
}

func NewPruneVocabUseCase(log *Logger) *PruneVocabUseCase {
	return &PruneVocabUseCase{log: log}
}

func (uc *PruneVocabUseCase) Execute(ctx context.Context, input PruneVocabInput) (*PruneVocabOutput, error) {
	v, err := loadVocabFile(input.Input, input.Lowercase)
	if err != nil {
		return nil, err
	}

	before := v.Len()
	if err := v.Prune(input.MinCount); err != nil {
		return nil, fmt.Errorf("prune vocabulary: %w", err)
	}

	output := input.Output
	if output == "" {
		output = input.Input
	}
	if err := saveVocabFile(output, v); err != nil {
		return nil, err
	}

	uc.log.Info("pruned %d -> %d entries (min_count=%d)", before, v.Len(), input.MinCount)
	return &PruneVocabOutput{Before: before, After: v.Len()}, nil
}

type TrainUseCase struct {
	log *Logger
}

func NewTrainUseCase(log *Logger) *TrainUseCase {
	return &TrainUseCase{log: log}
}

func (uc *TrainUseCase) Execute(ctx context.Context, input TrainInput) (*TrainOutput, error) {
	cfg := input.Config
	if err := cfg.Training.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	typ, _ := ParseModelType(cfg.Training.Model)

	var v *Vocabulary
	var err error
	if input.VocabPath != "" {
		if v, err = loadVocabFile(input.VocabPath, cfg.Vocab.Lowercase); err == nil {
			if err = v.Prune(cfg.Vocab.MinCount); err != nil {
				err = fmt.Errorf("prune vocabulary: %w", err)
			}
		}
	} else {
		v, err = learnVocab(input.Corpus, cfg.Vocab, uc.log)
	}
	if err != nil {
		return nil, err
	}
	if input.SaveVocab != "" {
		if err := saveVocabFile(input.SaveVocab, v); err != nil {
			return nil, err
		}
	}

	paragraphs := 0
	if typ.Paragraphs() {
		if paragraphs, err = CountLines(input.Corpus); err != nil {
			return nil, err
		}
	}

	var m *Model
	if prev := input.Previous; prev != nil && reusable(prev.Model, cfg.Training) {
		m = prev.Model
		m.Sync(prev.Vocab, v, paragraphs)
		uc.log.Info("model synced to %d entries, %d paragraphs", m.Words, m.Paragraphs)
	} else {
		if input.Previous != nil {
			uc.log.Warn("previous model does not fit the configuration, starting from scratch")
		}
		if m, err = NewModel(v, cfg.Training, paragraphs); err != nil {
			return nil, err
		}
	}

	trainer, err := NewTrainer(v, cfg.Training, uc.log)
	if err != nil {
		return nil, err
	}
	if err := trainer.Train(ctx, input.Corpus, m); err != nil {
		return nil, err
	}

	if input.Output != "" {
		if err := uc.export(input.Output, m.Vectors(v), cfg.Output); err != nil {
			return nil, err
		}
	}

	return &TrainOutput{Vocab: v, Model: m, WordsSeen: trainer.WordsSeen()}, nil
}

func (uc *TrainUseCase) export(path string, vs *Vectors, out OutputConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if out.Classes > 0 {
		classes, err := Cluster(vs, out.Classes, DefaultKMeansIterations)
		if err != nil {
			return err
		}
		if err := WriteClasses(f, vs.Tokens, classes); err != nil {
			return err
		}
		uc.log.Info("%d classes written to %s", out.Classes, path)
		return f.Close()
	}

	if err := WriteVectors(f, vs, out.Format); err != nil {
		return err
	}
	uc.log.Info("%d %s vectors written to %s", vs.Len(), out.Format, path)
	return f.Close()
}

// reusable reports whether m has the shape cfg would create.
func reusable(m *Model, cfg TrainingConfig) bool {
	if m == nil {
		return false
	}
	typ, err := ParseModelType(cfg.Model)
	if err != nil {
		return false
	}
	return m.Type == typ &&
		m.Dim == cfg.Dim &&
		(m.Softmax != nil) == cfg.HS &&
		(m.Negative != nil) == (cfg.Negative > 0)
}

type SimilarUseCase struct {
	log *Logger
}

func NewSimilarUseCase(log *Logger) *SimilarUseCase {
	return &SimilarUseCase{log: log}
}

func (uc *SimilarUseCase) Execute(ctx context.Context, input SimilarInput) (*SimilarOutput, error) {
	vs, err := readVectorsFile(input.Vectors, input.Format)
	if err != nil {
		return nil, err
	}

	if input.K <= 0 {
		input.K = 10
	}
	query, ok := vs.Lookup(input.Query)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, input.Query)
	}

	dir := input.IndexDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "w2v-index-*")
		if err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	index, err := uc.openIndex(ctx, input, dir, vs)
	if err != nil {
		return nil, err
	}

	// one extra hit for the query itself
	hits, err := index.Search(ctx, query, input.K+1)
	if err != nil {
		return nil, err
	}

	out := &SimilarOutput{Query: input.Query, Neighbors: make([]Neighbor, 0, input.K)}
	for _, h := range hits {
		if h.Token == input.Query {
			continue
		}
		if len(out.Neighbors) == input.K {
			break
		}
		out.Neighbors = append(out.Neighbors, h)
	}
	return out, nil
}

// openIndex loads the saved index when it was built from the same vectors
// file, and builds a fresh one otherwise.
func (uc *SimilarUseCase) openIndex(ctx context.Context, input SimilarInput, dir string, vs *Vectors) (*AnnoyIndex, error) {
	source, err := vectorsSource(input.Vectors)
	if err != nil {
		return nil, err
	}

	index, err := NewAnnoyIndex(dir, vs.Dim)
	if err != nil {
		return nil, err
	}
	if input.IndexDir != "" {
		saved, ok, err := IndexSource(dir)
		if err != nil {
			return nil, err
		}
		if ok && saved == source {
			err := index.Load(ctx)
			if err == nil && index.Built() && index.Contains(ctx, input.Query) {
				return index, nil
			}
			if err != nil && !errors.Is(err, ErrDimensionMismatch) {
				return nil, err
			}
			if index, err = NewAnnoyIndex(dir, vs.Dim); err != nil {
				return nil, err
			}
		} else if ok {
			uc.log.Info("index in %s was built from other vectors, rebuilding", dir)
		}
	}

	if err := index.AddVectors(ctx, vs); err != nil {
		return nil, err
	}
	if err := index.Build(ctx, input.Trees); err != nil {
		return nil, err
	}
	index.SetSource(source)
	uc.log.Info("index built over %d vectors", vs.Len())
	if input.IndexDir != "" {
		if err := index.Save(ctx); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// vectorsSource identifies a vectors file by its absolute path, size and
// modification time.
func vectorsSource(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s:%d:%d", abs, fi.Size(), fi.ModTime().UnixNano()), nil
}

type ClassesUseCase struct {
	log *Logger
}

func NewClassesUseCase(log *Logger) *ClassesUseCase {
	return &ClassesUseCase{log: log}
}

func (uc *ClassesUseCase) Execute(ctx context.Context, input ClassesInput) (*ClassesOutput, error) {
	vs, err := readVectorsFile(input.Vectors, input.Format)
	if err != nil {
		return nil, err
	}

	iters := input.Iterations
	if iters <= 0 {
		iters = DefaultKMeansIterations
	}
	classes, err := Cluster(vs, input.K, iters)
	if err != nil {
		return nil, err
	}

	uc.log.Info("clustered %d vectors into %d classes", vs.Len(), min(input.K, vs.Len()))
	return &ClassesOutput{Tokens: vs.Tokens, Classes: classes}, nil
}

// learnVocab scans the corpus, logging read progress in tenths.
func learnVocab(corpus string, cfg VocabConfig, log *Logger) (*Vocabulary, error) {
	f, err := os.Open(corpus)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}

	last := int64(-1)
	pr := &ProgressReader{
		R:     f,
		Total: info.Size(),
		OnProgress: func(done, total int64) {
			if total == 0 {
				return
			}
			if tenth := done * 10 / total; tenth != last {
				last = tenth
				log.Debug("reading %s: %d%%", filepath.Base(corpus), tenth*10)
			}
		},
	}

	return BuildVocabulary(pr, cfg, log)
}

func loadVocabFile(path string, folded bool) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()
	return LoadVocab(f, folded)
}

func saveVocabFile(path string, v *Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vocabulary: %w", err)
	}
	defer f.Close()

	if err := SaveVocab(f, v); err != nil {
		return err
	}
	return f.Close()
}

func readVectorsFile(path, format string) (*Vectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()
	return ReadVectors(f, format)
}
