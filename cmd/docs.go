package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage uploaded documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your uploaded documents",
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete an uploaded document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
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

	docs, err := client.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents uploaded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILENAME\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(w, "%d\t%s\t%s\n", d.ID, d.Filename, d.CreatedAt)
	}
	return w.Flush()
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
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

	if err := client.DeleteDocument(cmd.Context(), docID); err != nil {
		return fmt.Errorf("deleting document %d: %w", docID, err)
	}
	fmt.Printf("Deleted document %d.\n", docID)
	return nil
}
