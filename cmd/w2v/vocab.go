package main

import (
	"fmt"

	"github.com/4thel00z/w2v/internal"
	"github.com/spf13/cobra"
)

func NewVocabCmd(
	build func() *internal.BuildVocabUseCase,
	prune func() *internal.PruneVocabUseCase,
	cfg func() *internal.Config,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Build and prune vocabularies",
	}

	cmd.AddCommand(
		newVocabBuildCmd(build, cfg),
		newVocabPruneCmd(prune),
	)
	return cmd
}

func newVocabBuildCmd(build func() *internal.BuildVocabUseCase, cfg func() *internal.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <corpus>",
		Short: "Count tokens in a corpus",
		Long:  `Scan a corpus and write one "<token> <count>" line per vocabulary entry, most frequent first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			asJSON, _ := cmd.Flags().GetBool("json")

			vc := cfg().Vocab
			if cmd.Flags().Changed("min-count") {
				vc.MinCount, _ = cmd.Flags().GetUint64("min-count")
			}
			if cmd.Flags().Changed("max-size") {
				vc.MaxSize, _ = cmd.Flags().GetInt("max-size")
			}
			if cmd.Flags().Changed("lowercase") {
				vc.Lowercase, _ = cmd.Flags().GetBool("lowercase")
			}

			out, err := build().Execute(cmd.Context(), internal.BuildVocabInput{
				Corpus: args[0],
				Output: output,
				Vocab:  vc,
			})
			if err != nil {
				return fmt.Errorf("build vocabulary: %w", err)
			}

			if asJSON {
				return outputJSON(cmd, map[string]any{
					"entries":     out.Entries,
					"train_words": out.TrainWords,
					"output":      output,
				})
			}

			if output == "" {
				return internal.SaveVocab(cmd.OutOrStdout(), out.Vocab)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %d train words -> %s\n", out.Entries, out.TrainWords, output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Vocabulary file to write (stdout when empty)")
	cmd.Flags().Uint64("min-count", 5, "Drop tokens seen fewer times")
	cmd.Flags().Int("max-size", 21_000_000, "Reduce the vocabulary while scanning above this size")
	cmd.Flags().Bool("lowercase", false, "Case-fold tokens")
	return cmd
}

func newVocabPruneCmd(prune func() *internal.PruneVocabUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune <vocab>",
		Short: "Drop rare entries from a vocabulary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			minCount, _ := cmd.Flags().GetUint64("min-count")
			lowercase, _ := cmd.Flags().GetBool("lowercase")
			asJSON, _ := cmd.Flags().GetBool("json")

			out, err := prune().Execute(cmd.Context(), internal.PruneVocabInput{
				Input:     args[0],
				Output:    output,
				MinCount:  minCount,
				Lowercase: lowercase,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, map[string]any{"before": out.Before, "after": out.After})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d -> %d entries\n", out.Before, out.After)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (overwrites the input when empty)")
	cmd.Flags().Uint64("min-count", 5, "Drop tokens seen fewer times")
	cmd.Flags().Bool("lowercase", false, "Vocabulary keys are case-folded")
	return cmd
}
