package system

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func NewGenDocsCommand() *cobra.Command {
	var outDir, format string

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Write reference docs for every mentorbook command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true

			var err error
			switch format {
			case "markdown":
				err = doc.GenMarkdownTree(root, outDir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{Title: "MENTORBOOK", Section: "1"}, outDir)
			case "yaml":
				err = doc.GenYamlTree(root, outDir)
			default:
				return fmt.Errorf("unknown --format %q, want markdown, man or yaml", format)
			}
			if err != nil {
				return fmt.Errorf("generate %s docs: %w", format, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s docs written to %s\n", format, outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "docs/cli", "Output directory")
	cmd.Flags().StringVar(&format, "format", "markdown", "markdown, man or yaml")
	return cmd
}
