package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

var (
	askDocID   int64
	askGeneral bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Long: `Ask one question without opening an interactive chat.

With --doc the question is answered from that document; with --general
it is answered without any document context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int64Var(&askDocID, "doc", 0, "document id to ask about")
	askCmd.Flags().BoolVar(&askGeneral, "general", false, "ask without document context")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if !askGeneral && askDocID == 0 {
		return fmt.Errorf("pass --doc <id> or --general")
	}
	if askGeneral && askDocID != 0 {
		return fmt.Errorf("--doc and --general are mutually exclusive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}
	if err := requireAuth(cmd.Context(), store, client); err != nil {
		return err
	}

	var res *api.AskResponse
	if askGeneral {
		res, err = client.GeneralAsk(cmd.Context(), args[0])
	} else {
		res, err = client.Ask(cmd.Context(), args[0], askDocID)
	}
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	fmt.Println(res.Answer)
	return nil
}
