package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge"
)

var validateCmd = &cobra.Command{
	Use:   "validate <content.json>...",
	Short: "Check page content files for structural problems",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range args {
			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			doc, err := pageforge.ParseDocument(data)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
				continue
			}
			problems := pageforge.ValidateForest(doc.Elements)
			if len(problems) > 0 {
				failed++
				fmt.Fprintf(out, "FAIL %s\n", name)
				for _, p := range problems {
					fmt.Fprintf(out, "  - %v\n", p)
				}
				continue
			}
			fmt.Fprintf(out, "ok   %s (%d elements)\n", name, pageforge.Count(doc.Elements))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
