package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskboard/internal/export"
	"github.com/steveyegge/taskboard/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export <file>",
	GroupID: "board",
	Short:   "Export the board to a JSONL snapshot",
	Long: `Export every task from both partitions to a JSONL snapshot file, one
record per line. The snapshot records each task's partition so an import
can restore it to the right place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		result, err := export.Export(cmd.Context(), db, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s Exported %d tasks to %s\n", ui.RenderPass("✓"), result.Total(), args[0])
		return nil
	},
}

var importDryRun bool

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "board",
	Short:   "Import tasks from a JSONL snapshot",
	Long: `Import tasks from a JSONL snapshot into their recorded partitions.

Tasks whose id already exists are skipped, so importing the same snapshot
twice is safe. Records that fail to validate are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		result, err := export.Import(cmd.Context(), db, export.ImportOptions{
			Path:   args[0],
			DryRun: importDryRun,
		})
		if err != nil {
			return err
		}

		verb := "Imported"
		if importDryRun {
			verb = "Would import"
		}
		fmt.Printf("%s %s %d tasks (%d skipped)\n", ui.RenderPass("✓"), verb, result.Imported, result.Skipped)
		for _, msg := range result.Errors {
			fmt.Printf("%s %s\n", ui.RenderWarn("!"), msg)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate without writing")
}
