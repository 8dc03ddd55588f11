package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/export"
	"github.com/sadopc/timetable/internal/focus"
)

func newImportCmd(o *rootOptions) *cobra.Command {
	var sessionsPath string
	cmd := &cobra.Command{
		Use:   "import BLOCKS.json",
		Short: "Import classes and focus history from JSON",
		Long: `Import classes from a JSON file holding either an array of classes or a
"timetable export --format json" bundle. Classes keep their ids, so
importing the same file twice updates instead of duplicating.

Use --sessions to also import focus history; it may name the same bundle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			blocks, err := export.ReadBlocks(f)
			f.Close()
			if err != nil {
				return err
			}

			var sessions []focus.Session
			if sessionsPath != "" {
				sf, err := os.Open(sessionsPath)
				if err != nil {
					return err
				}
				sessions, err = export.ReadSessions(sf)
				sf.Close()
				if err != nil {
					return err
				}
			}

			e, err := o.open("import", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			n, importErr := e.store.ImportBlocks(blocks)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d classes\n", n, len(blocks))

			recorded := 0
			for _, s := range sessions {
				if err := record(e.store, s); err != nil {
					return err
				}
				recorded++
			}
			if sessionsPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d focus sessions\n", recorded)
			}

			if importErr != nil {
				return fmt.Errorf("some classes were skipped: %w", importErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionsPath, "sessions", "", "JSON file with focus sessions")
	return cmd
}
