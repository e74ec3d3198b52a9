package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/livetemplate/pageforge"
	"github.com/livetemplate/pageforge/internal/render"
)

var (
	renderPage        bool
	renderTitle       string
	renderDescription string
	renderUtility     bool
)

var renderCmd = &cobra.Command{
	Use:   "render <content.json|->",
	Short: "Render page content to HTML",
	Long: `Render reads page content ({"elements": [...]}) and writes the HTML
fragment to stdout. With --page the fragment is wrapped in a complete
document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		doc, err := pageforge.ParseDocument(data)
		if err != nil {
			return err
		}

		r := render.New(render.WithLogger(logger), render.WithUtilityClasses(renderUtility || cfg.Render.UtilityClasses))
		body, errs := r.RenderWithErrors(doc.Elements)
		for _, e := range errs {
			logger.Warn().Err(e).Msg("element rendered as placeholder")
		}

		out := body
		if renderPage {
			out, err = render.Document(render.PageMeta{
				Title:       renderTitle,
				Description: renderDescription,
			}, body)
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "Wrap the output in a complete HTML document")
	renderCmd.Flags().StringVar(&renderTitle, "title", "Untitled", "Document title for --page")
	renderCmd.Flags().StringVar(&renderDescription, "description", "", "Meta description for --page")
	renderCmd.Flags().BoolVar(&renderUtility, "utility-classes", false, "Emit tw-* style keys as class names")
}
