package main

import (
	"context"
	"io"
	"os"

	"github.com/4thel00z/w2v/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app := newApp(os.Stderr)
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	log        *internal.Logger
	cfg        *internal.Config
	buildVocab *internal.BuildVocabUseCase
	pruneVocab *internal.PruneVocabUseCase
	train      *internal.TrainUseCase
	similar    *internal.SimilarUseCase
	classes    *internal.ClassesUseCase
}

func newApp(logOut io.Writer) *app {
	log := internal.NewLogger(logOut, "info")

	return &app{
		log:        log,
		cfg:        internal.DefaultConfig(),
		buildVocab: internal.NewBuildVocabUseCase(log),
		pruneVocab: internal.NewPruneVocabUseCase(log),
		train:      internal.NewTrainUseCase(log),
		similar:    internal.NewSimilarUseCase(log),
		classes:    internal.NewClassesUseCase(log),
	}
}
