package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/share"
)

var (
	shareServePort int
	shareViewHTML  bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create and view shared conversations",
}

var shareCreateCmd = &cobra.Command{
	Use:   "create <doc-id>",
	Short: "Create a read-only share link for a document's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareCreate,
}

var shareViewCmd = &cobra.Command{
	Use:   "view <share-id>",
	Short: "Print a shared conversation",
	Long: `Print a shared conversation in the terminal. No sign-in is needed;
anyone holding the link can read it.`,
	Args: cobra.ExactArgs(1),
	RunE: runShareView,
}

var shareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List share links minted from this machine",
	RunE:  runShareList,
}

var shareServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve shared conversations as HTML pages",
	Long: `Run a local read-only viewer. A recipient can open
http://localhost:<port>/share/<share-id> in a browser.`,
	RunE: runShareServe,
}

func init() {
	shareServeCmd.Flags().IntVar(&shareServePort, "port", 0, "port to listen on (default from config)")
	shareViewCmd.Flags().BoolVar(&shareViewHTML, "html", false, "print the conversation as an HTML page")
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareCreateCmd)
	shareCmd.AddCommand(shareViewCmd)
	shareCmd.AddCommand(shareListCmd)
	shareCmd.AddCommand(shareServeCmd)
}

func runShareCreate(cmd *cobra.Command, args []string) error {
	docID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
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

	doc, err := client.Document(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("loading document %d: %w", docID, err)
	}

	history := openHistory(cfg)
	var hist share.History
	if history != nil {
		defer history.Close()
		hist = history
	}

	svc := share.NewService(client, store, hist)
	res, err := svc.Create(cmd.Context(), doc.ID, doc.Filename)
	if err != nil {
		return err
	}
	fmt.Println(res.ShareURL)
	return nil
}

func runShareView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}

	svc := share.NewService(client, store, nil)
	sc, err := svc.Fetch(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if shareViewHTML {
		page, err := share.RenderHTML(sc)
		if err != nil {
			return err
		}
		os.Stdout.Write(page)
		return nil
	}

	fmt.Printf("Shared conversation about %s\n\n", sc.Filename)
	for _, m := range sc.Conversation {
		who := "you"
		if m.Role == api.RoleAssistant {
			who = "smartdocq"
		}
		if m.Time != "" {
			fmt.Printf("%s %s: %s\n", m.Time, who, m.Content)
		} else {
			fmt.Printf("%s: %s\n", who, m.Content)
		}
	}
	return nil
}

func runShareList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history := openHistory(cfg)
	if history == nil {
		return fmt.Errorf("local history is unavailable")
	}
	defer history.Close()

	links, err := history.ListShares(0)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Println("No share links minted yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tDOC\tFILENAME\tURL")
	for _, l := range links {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.CreatedAt.Format("2006-01-02 15:04"), l.DocID, l.Filename, l.URL)
	}
	return w.Flush()
}

func runShareServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}

	port := shareServePort
	if port == 0 {
		port = cfg.Share.ServePort
	}

	svc := share.NewService(client, store, nil)
	srv := share.NewServer(svc, port)
	return srv.Start()
}
