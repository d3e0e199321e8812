package internal

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	progressInterval = 10_000
	ctxCheckInterval = 1024
	minAlphaFraction = 1e-4
	// negative draws that hit the marker or the true target are retried this
	// many times before the sample is skipped
	maxNegativeDraws = 8
)

// Trainer runs asynchronous SGD over a corpus file. Workers share the model
// layers, the word counter and the learning rate without locks.
type Trainer struct {
	cfg        TrainingConfig
	typ        ModelType
	vocab      *Vocabulary
	table      *UnigramTable
	log        *Logger
	alpha0     float64
	trainWords uint64

	wordsSeen atomic.Int64
	alpha     atomic.Uint64
	start     time.Time
}

func NewTrainer(v *Vocabulary, cfg TrainingConfig, log *Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	typ, err := ParseModelType(cfg.Model)
	if err != nil {
		return nil, err
	}
	if v.Len() < 2 {
		return nil, ErrEmptyVocab
	}

	if cfg.HS && !v.Encoded() {
		if err := v.Encode(); err != nil {
			return nil, fmt.Errorf("encode vocabulary: %w", err)
		}
		log.Info("huffman tree built for %d entries", v.Len())
	}

	t := &Trainer{
		cfg:        cfg,
		typ:        typ,
		vocab:      v,
		log:        log,
		alpha0:     cfg.LearningRate(),
		trainWords: v.TrainWords(),
	}

	if cfg.Negative > 0 {
		table, err := NewUnigramTable(v, cfg.TableSize, UnigramPower)
		if err != nil {
			return nil, fmt.Errorf("build unigram table: %w", err)
		}
		t.table = table
		log.Info("unigram table built with %d slots", table.Len())
	}

	t.setAlpha(t.alpha0)
	return t, nil
}

func (t *Trainer) LearningRate() float64 {
	return math.Float64frombits(t.alpha.Load())
}

func (t *Trainer) WordsSeen() int64 {
	return t.wordsSeen.Load()
}

func (t *Trainer) setAlpha(a float64) {
	t.alpha.Store(math.Float64bits(a))
}

// updateAlpha decays the rate linearly with global progress, floored at
// minAlphaFraction of the start rate.
func (t *Trainer) updateAlpha(seen int64) float64 {
	frac := float64(seen) / (float64(t.cfg.Epochs)*float64(t.trainWords) + 1)
	a := max(t.alpha0*(1-frac), t.alpha0*minAlphaFraction)
	t.setAlpha(a)
	return a
}

// Train makes cfg.Epochs passes over corpus, updating m in place. Each
// worker owns one span of the file and rewinds to its start after every
// pass; the first worker error ends the run.
func (t *Trainer) Train(ctx context.Context, corpus string, m *Model) error {
	if m.Words != t.vocab.Len() {
		return fmt.Errorf("%w: model has %d word rows, vocabulary has %d entries", ErrDimensionMismatch, m.Words, t.vocab.Len())
	}
	if m.Type != t.typ {
		return fmt.Errorf("model is %s, trainer is configured for %s", m.Type, t.typ)
	}
	if t.cfg.HS && m.Softmax == nil {
		return fmt.Errorf("model has no softmax layer")
	}
	if t.cfg.Negative > 0 && m.Negative == nil {
		return fmt.Errorf("model has no negative sampling layer")
	}

	spans, err := Partition(corpus, t.cfg.Workers(), t.typ.Paragraphs())
	if err != nil {
		return err
	}

	t.wordsSeen.Store(0)
	t.setAlpha(t.alpha0)
	t.start = time.Now()
	t.log.WithFields(map[string]any{
		"model":   t.typ,
		"workers": len(spans),
		"epochs":  t.cfg.Epochs,
	}).Info("training on %s (%d train words)", corpus, t.trainWords)

	g, ctx := errgroup.WithContext(ctx)
	for id, span := range spans {
		g.Go(func() error {
			return t.work(ctx, id, span, corpus, m)
		})
	}
	err = g.Wait()
	t.recordRun(err)
	if err != nil {
		return err
	}

	t.log.Info("training finished in %s, %d words seen", time.Since(t.start).Round(time.Millisecond), t.WordsSeen())
	return nil
}

func (t *Trainer) work(ctx context.Context, id int, span Span, corpus string, m *Model) error {
	f, err := os.Open(corpus)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	w := t.newWorker(id, m)
	for epoch := t.cfg.Epochs; epoch > 0; epoch-- {
		// the section bounds the worker to its own span even inside a line
		tr := NewTokenReader(io.NewSectionReader(f, span.Start, span.End-span.Start), t.vocab.Folded)
		w.lineNo = span.FirstLine
		w.inLine = false

		for n := 0; ; n++ {
			if n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			tok, eol, ok := tr.Next()
			if !ok {
				break
			}
			if eol {
				w.endLine()
				continue
			}
			if err := w.token(tok); err != nil {
				return err
			}
		}
		if err := tr.Err(); err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}

		w.endSpan()
		w.flush()
		w.log.Debug("epoch %d/%d done", t.cfg.Epochs-epoch+1, t.cfg.Epochs)
	}
	return nil
}

// worker holds everything one goroutine touches besides the shared layers.
type worker struct {
	t   *Trainer
	m   *Model
	log *Logger
	rng *rand.Rand

	neu1  []float32
	neu1e []float32
	idx   []int
	one   [1]int

	sentence []*Entry
	ctx      Context
	para     Entry
	opts     WindowOptions
	lineNo   int
	inLine   bool

	words     int64
	lastWords int64
}

func (t *Trainer) newWorker(id int, m *Model) *worker {
	w := &worker{
		t:        t,
		m:        m,
		log:      t.log.WithField("worker", id),
		rng:      newThreadRand(t.cfg.Seed, id),
		neu1:     make([]float32, m.Dim),
		neu1e:    make([]float32, m.Dim),
		idx:      make([]int, 0, 2*t.cfg.Window+2),
		sentence: make([]*Entry, 0, MaxSentenceLength),
		ctx:      Context{Window: make([]*Entry, 0, 2*t.cfg.Window+2)},
	}

	w.opts = WindowOptions{
		Before: t.cfg.Window,
		After:  t.cfg.Window,
		Random: t.cfg.RandomWindow,
	}
	switch m.Type {
	case ModelPVDM:
		w.opts.Paragraph = &w.para
	case ModelPVDBOW:
		// the paragraph predicts each word of its line once
		w.opts = WindowOptions{
			Paragraph:         &w.para,
			ParagraphAsCenter: true,
			IncludeSelf:       true,
		}
	}
	return w
}

// token adds one corpus token to the current sentence, training it once it
// reaches MaxSentenceLength.
func (w *worker) token(tok string) error {
	if !w.inLine {
		if w.m.Type.Paragraphs() {
			if w.lineNo >= w.m.Paragraphs {
				return fmt.Errorf("%w: line %d has no paragraph row (model has %d)", ErrDimensionMismatch, w.lineNo, w.m.Paragraphs)
			}
			w.para = w.t.vocab.Paragraph(w.lineNo)
		}
		w.inLine = true
	}

	e, ok := w.t.vocab.Get(tok)
	if !ok {
		return nil
	}
	w.words++
	if w.discard(e) {
		return nil
	}
	w.sentence = append(w.sentence, e)
	if len(w.sentence) == MaxSentenceLength {
		w.train()
		w.sentence = w.sentence[:0]
	}
	return nil
}

// endLine counts the end-of-sentence marker and trains what is left of the
// line.
func (w *worker) endLine() {
	w.words++
	w.endSpan()
	w.lineNo++
	w.inLine = false

	if w.words-w.lastWords > progressInterval {
		w.report()
	}
}

// endSpan trains a pending sentence without counting a marker.
func (w *worker) endSpan() {
	if len(w.sentence) > 0 {
		w.train()
		w.sentence = w.sentence[:0]
	}
}

// discard applies frequent-word subsampling.
func (w *worker) discard(e *Entry) bool {
	if w.t.cfg.Sample <= 0 {
		return false
	}
	st := w.t.cfg.Sample * float64(w.t.trainWords)
	c := float64(e.Count)
	keep := (math.Sqrt(c/st) + 1) * st / c
	return keep < w.rng.Float64()
}

func (w *worker) report() {
	delta := w.words - w.lastWords
	seen := w.t.wordsSeen.Add(delta)
	w.lastWords = w.words
	alpha := w.t.updateAlpha(seen)
	w.t.updateMetrics(delta, alpha)

	elapsed := time.Since(w.t.start).Seconds() + 1
	total := float64(w.t.cfg.Epochs)*float64(w.t.trainWords) + 1
	w.log.WithFields(map[string]any{
		"alpha":    fmt.Sprintf("%.6f", alpha),
		"progress": fmt.Sprintf("%.2f%%", float64(seen)/total*100),
		"kwords/s": fmt.Sprintf("%.2f", float64(seen)/elapsed/1000),
	}).Debug("progress")
}

// flush publishes the words left over at the end of a pass.
func (w *worker) flush() {
	if w.words > w.lastWords {
		w.report()
	}
	w.words = 0
	w.lastWords = 0
}

func (w *worker) train() {
	for pos := range w.sentence {
		BuildWindow(&w.ctx, w.sentence, pos, w.opts, w.rng)

		switch w.m.Type {
		case ModelCBOW, ModelPVDM:
			w.cbow()
		case ModelSkipGram:
			for _, e := range w.ctx.Window {
				w.pair(e.Index, w.ctx.Center)
			}
		case ModelPVDBOW:
			for _, e := range w.ctx.Window {
				w.pair(w.ctx.Center.Index, e)
			}
		}
	}
}

// cbow averages the window, scores the center once and pushes the same
// gradient into every window row.
func (w *worker) cbow() {
	if w.ctx.Size == 0 {
		return
	}
	w.idx = w.idx[:0]
	for _, e := range w.ctx.Window {
		w.idx = append(w.idx, e.Index)
	}

	w.m.Input.ForwardLookupAvg(w.idx, w.neu1)
	clear(w.neu1e)
	w.objective(w.neu1, w.ctx.Center)
	w.m.Input.BackpropLookup(w.idx, w.neu1e)
}

// pair trains input row input to predict target.
func (w *worker) pair(input int, target *Entry) {
	w.one[0] = input
	w.m.Input.ForwardLookup(w.one[:], w.neu1)
	clear(w.neu1e)
	w.objective(w.neu1, target)
	w.m.Input.BackpropLookup(w.one[:], w.neu1e)
}

// objective runs hierarchical softmax and/or negative sampling for target
// given hidden vector in, accumulating the input gradient into neu1e.
func (w *worker) objective(in []float32, target *Entry) {
	alpha := float32(w.t.LearningRate())

	if w.t.cfg.HS {
		for d, p := range target.Points {
			f := w.m.Softmax.ForwardPoint(in, int(p))
			s, ok := sigmoid(f)
			if !ok {
				continue
			}
			g := (1 - float32(target.Code[d]) - s) * alpha
			w.m.Softmax.BackpropAccumulate(in, int(p), g, w.neu1e)
		}
	}

	if w.t.cfg.Negative > 0 {
		for d := 0; d <= w.t.cfg.Negative; d++ {
			idx, label := target.Index, float32(1)
			if d > 0 {
				var ok bool
				if idx, ok = w.drawNegative(target.Index); !ok {
					continue
				}
				label = 0
			}

			f := w.m.Negative.ForwardPoint(in, idx)
			s, ok := sigmoid(f)
			if !ok {
				continue
			}
			g := (label - s) * alpha
			w.m.Negative.BackpropAccumulate(in, idx, g, w.neu1e)
		}
	}
}

func (w *worker) drawNegative(target int) (int, bool) {
	for range maxNegativeDraws {
		idx := w.t.table.Sample(w.rng)
		if idx != 0 && idx != target {
			return idx, true
		}
	}
	return 0, false
}
