package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/w2v/internal"
	"github.com/spf13/cobra"
)

func NewClassesCmd(svc func() *internal.ClassesUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes <vectors>",
		Short: "Cluster vectors into word classes",
		Long:  `Run k-means over trained vectors and print one "<token> <class>" line per row.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("classes")
			iters, _ := cmd.Flags().GetInt("iterations")
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			asJSON, _ := cmd.Flags().GetBool("json")

			out, err := svc().Execute(cmd.Context(), internal.ClassesInput{
				Vectors:    args[0],
				Format:     format,
				K:          k,
				Iterations: iters,
			})
			if err != nil {
				return fmt.Errorf("classes: %w", err)
			}

			if asJSON {
				classes := make(map[string]int, len(out.Tokens))
				for i, tok := range out.Tokens {
					classes[tok] = out.Classes[i]
				}
				return outputJSON(cmd, classes)
			}

			if output == "" {
				return internal.WriteClasses(cmd.OutOrStdout(), out.Tokens, out.Classes)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			if err := internal.WriteClasses(f, out.Tokens, out.Classes); err != nil {
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().IntP("classes", "k", 100, "Number of classes")
	cmd.Flags().Int("iterations", internal.DefaultKMeansIterations, "K-means iterations")
	cmd.Flags().String("format", internal.FormatText, "Vector file format (text|binary)")
	cmd.Flags().StringP("output", "o", "", "Output file (stdout when empty)")
	return cmd
}
