package main

import (
	"fmt"

	"github.com/4thel00z/w2v/internal"
	"github.com/spf13/cobra"
)

func NewSimilarCmd(svc func() *internal.SimilarUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <vectors> <token>",
		Short: "Find the nearest tokens",
		Long:  `Load trained vectors into an angular nearest-neighbour index and print the closest tokens.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			format, _ := cmd.Flags().GetString("format")
			indexDir, _ := cmd.Flags().GetString("index")
			trees, _ := cmd.Flags().GetInt("trees")
			asJSON, _ := cmd.Flags().GetBool("json")

			out, err := svc().Execute(cmd.Context(), internal.SimilarInput{
				Vectors:  args[0],
				Format:   format,
				Query:    args[1],
				K:        limit,
				IndexDir: indexDir,
				Trees:    trees,
			})
			if err != nil {
				return fmt.Errorf("similar: %w", err)
			}

			if asJSON {
				results := make([]map[string]any, 0, len(out.Neighbors))
				for _, n := range out.Neighbors {
					results = append(results, map[string]any{
						"token": n.Token,
						"score": n.Score,
					})
				}
				return outputJSON(cmd, results)
			}

			for _, n := range out.Neighbors {
				fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n", n.Score, n.Token)
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 10, "Maximum results")
	cmd.Flags().String("format", internal.FormatText, "Vector file format (text|binary)")
	cmd.Flags().String("index", "", "Directory to persist the index in (temporary when empty)")
	cmd.Flags().Int("trees", internal.DefaultTrees, "Number of index trees")
	return cmd
}
