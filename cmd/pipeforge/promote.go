package main

import (
	"fmt"

	"github.com/aretw0/pipeforge/internal/presentation/tui"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/editor"
	"github.com/aretw0/pipeforge/pkg/promotion"
	"github.com/spf13/cobra"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <job>",
	Short: "Turn a job's inline executor into a reusable executor",
	Long: `Moves the inline executor of a job into the executors section under a derived
name and points the job at it. Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		prompt := tui.NewPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), tui.WithAssumeYes(yes))

		ctx := cmd.Context()
		ws, done, err := openWorkspace(ctx)
		if err != nil {
			return err
		}
		defer done()

		es := ws.Session(editor.WithConfirmer(prompt), editor.WithNotifier(prompt))
		defer es.Close(ctx)
		if err := es.EditDefinition(ctx, domain.KindJob, args[0]); err != nil {
			return err
		}
		name, err := es.Promote(ctx)
		if err != nil {
			return err
		}

		switch es.PromotionState() {
		case promotion.Confirmed:
		case promotion.Declined:
			fmt.Fprintln(cmd.OutOrStdout(), "nothing changed")
			return nil
		default:
			return fmt.Errorf("executor %q was not promoted", name)
		}

		if _, err := es.Submit(ctx); err != nil {
			return err
		}
		return persist(cmd, ws)
	},
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().BoolP("yes", "y", false, "confirm without prompting")
	promoteCmd.Flags().Bool("dry-run", false, "print the resulting document instead of writing it")
}
