package main

import (
	"encoding/json"

	"github.com/4thel00z/w2v/internal"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "w2v.yaml"

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "w2v",
		Short:         "Train word and paragraph vectors",
		Long:          `Learn CBOW, skip-gram and paragraph vectors from plain text with hierarchical softmax or negative sampling.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		rootCmd.PersistentPreRunE = a.setup
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", defaultConfigPath, "Config file (YAML)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	cfg := func() *internal.Config { return a.cfg }
	buildVocab := func() *internal.BuildVocabUseCase { return a.buildVocab }
	pruneVocab := func() *internal.PruneVocabUseCase { return a.pruneVocab }
	train := func() *internal.TrainUseCase { return a.train }
	similar := func() *internal.SimilarUseCase { return a.similar }
	classes := func() *internal.ClassesUseCase { return a.classes }

	root.AddCommand(
		NewInitCmd(),
		NewVocabCmd(buildVocab, pruneVocab, cfg),
		NewTrainCmd(train, cfg),
		NewSimilarCmd(similar),
		NewClassesCmd(classes),
	)
}

// setup loads the config file and points logging at the command's stderr.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cmd.Flags().GetString("log-level")
	a.log.SetLevel(level)
	a.log.SetOutput(cmd.ErrOrStderr())
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
