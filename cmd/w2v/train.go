package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/4thel00z/w2v/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewTrainCmd(train func() *internal.TrainUseCase, cfg func() *internal.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <corpus>",
		Short: "Train vectors on a corpus",
		Long: `Train word vectors (cbow, skipgram) or paragraph vectors (pvdm, pvdbow)
on a text corpus. Flags override the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: makeTrainRunner(train, cfg),
	}

	cmd.Flags().StringP("output", "o", "vectors.txt", "Vectors (or classes) output file")
	cmd.Flags().String("vocab", "", "Read the vocabulary from this file instead of the corpus")
	cmd.Flags().String("save-vocab", "", "Write the vocabulary to this file")
	cmd.Flags().StringP("model", "m", "cbow", "Model: cbow, skipgram, pvdm or pvdbow")
	cmd.Flags().Int("dim", 100, "Vector size")
	cmd.Flags().Int("window", 5, "Context half-window")
	cmd.Flags().Float64("sample", 1e-3, "Subsampling threshold for frequent words (0 disables)")
	cmd.Flags().Bool("hs", false, "Use hierarchical softmax")
	cmd.Flags().Int("negative", 5, "Negative samples per target (0 disables)")
	cmd.Flags().Float64("alpha", 0, "Starting learning rate (0 picks the model default)")
	cmd.Flags().Int("epochs", 5, "Passes over the corpus")
	cmd.Flags().Int("threads", 0, "Worker goroutines (0 is one per CPU)")
	cmd.Flags().Uint64("seed", 1, "Random seed")
	cmd.Flags().Bool("random-window", true, "Shrink each window to a random size")
	cmd.Flags().Int("table-size", internal.DefaultTableSize, "Negative sampling table size")
	cmd.Flags().Uint64("min-count", 5, "Drop tokens seen fewer times")
	cmd.Flags().Bool("lowercase", false, "Case-fold tokens")
	cmd.Flags().String("format", internal.FormatText, "Output format (text|binary)")
	cmd.Flags().Int("classes", 0, "Write k-means word classes instead of vectors")
	cmd.Flags().Bool("watch", false, "Retrain whenever the corpus changes")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for --watch")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while training")
	return cmd
}

func makeTrainRunner(train func() *internal.TrainUseCase, cfg func() *internal.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		corpus := args[0]
		watch, _ := cmd.Flags().GetBool("watch")

		c := *cfg()
		applyTrainFlags(cmd, &c)

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			bound, stop, err := serveMetrics(addr)
			if err != nil {
				return err
			}
			defer stop()
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving metrics on http://%s/metrics\n", bound)
		}

		input := internal.TrainInput{
			Corpus: corpus,
			Config: c,
		}
		input.Output, _ = cmd.Flags().GetString("output")
		input.VocabPath, _ = cmd.Flags().GetString("vocab")
		input.SaveVocab, _ = cmd.Flags().GetString("save-vocab")

		out, err := runTrain(cmd, train(), input)
		if err != nil || !watch {
			return err
		}

		debounce, _ := cmd.Flags().GetDuration("debounce")
		return watchCorpus(cmd, corpus, debounce, func() {
			input.Previous = out
			next, err := runTrain(cmd, train(), input)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "retrain: %v\n", err)
				return
			}
			out = next
		})
	}
}

func runTrain(cmd *cobra.Command, uc *internal.TrainUseCase, input internal.TrainInput) (*internal.TrainOutput, error) {
	out, err := uc.Execute(cmd.Context(), input)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return out, outputJSON(cmd, map[string]any{
			"model":      out.Model.Type,
			"dim":        out.Model.Dim,
			"entries":    out.Vocab.Len(),
			"paragraphs": out.Model.Paragraphs,
			"words_seen": out.WordsSeen,
			"output":     input.Output,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d paragraphs, %d words seen -> %s\n",
		out.Model.Type, out.Vocab.Len(), out.Model.Paragraphs, out.WordsSeen, input.Output)
	return out, nil
}

// applyTrainFlags copies every flag the user set onto c.
func applyTrainFlags(cmd *cobra.Command, c *internal.Config) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	set("model", func() { c.Training.Model, _ = f.GetString("model") })
	set("dim", func() { c.Training.Dim, _ = f.GetInt("dim") })
	set("window", func() { c.Training.Window, _ = f.GetInt("window") })
	set("sample", func() { c.Training.Sample, _ = f.GetFloat64("sample") })
	set("hs", func() { c.Training.HS, _ = f.GetBool("hs") })
	set("negative", func() { c.Training.Negative, _ = f.GetInt("negative") })
	set("alpha", func() { c.Training.Alpha, _ = f.GetFloat64("alpha") })
	set("epochs", func() { c.Training.Epochs, _ = f.GetInt("epochs") })
	set("threads", func() { c.Training.Threads, _ = f.GetInt("threads") })
	set("seed", func() { c.Training.Seed, _ = f.GetUint64("seed") })
	set("random-window", func() { c.Training.RandomWindow, _ = f.GetBool("random-window") })
	set("table-size", func() { c.Training.TableSize, _ = f.GetInt("table-size") })
	set("min-count", func() { c.Vocab.MinCount, _ = f.GetUint64("min-count") })
	set("lowercase", func() { c.Vocab.Lowercase, _ = f.GetBool("lowercase") })
	set("format", func() { c.Output.Format, _ = f.GetString("format") })
	set("classes", func() { c.Output.Classes, _ = f.GetInt("classes") })
}

func watchCorpus(cmd *cobra.Command, corpus string, debounce time.Duration, retrain func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(corpus)); err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", corpus)

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldRetrain(event, corpus) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-timer.C:
			pending = false
			retrain()
		}
	}
}

func shouldRetrain(event fsnotify.Event, corpus string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(corpus) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
