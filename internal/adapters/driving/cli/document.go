package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view or delete stored documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDetailsCmd = &cobra.Command{
	Use:   "details [doc-id]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDetails,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDetailsCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}

	p := newPainter(out)
	for i := range docs {
		status := string(docs[i].Status)
		if docs[i].MergedInto != nil {
			status += " into " + *docs[i].MergedInto
		}
		fmt.Fprintf(out, "  %s  %s %s\n", docs[i].ID, p.heading(docs[i].FileName), p.muted("("+status+")"))
		if docs[i].Title != "" {
			fmt.Fprintf(out, "    Title: %s\n", docs[i].Title)
		}
	}

	fmt.Fprintf(out, "\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID: %s\n", doc.ID)
	fmt.Fprintf(out, "File: %s\n", doc.FileName)
	if doc.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", doc.Title)
	}
	fmt.Fprintf(out, "Type: %s\n", doc.ContentType)
	fmt.Fprintf(out, "Status: %s\n", doc.Status)
	fmt.Fprintf(out, "Pages: %d\n", doc.PageCount)
	fmt.Fprintf(out, "Size: %d bytes\n", doc.FileSize)
	fmt.Fprintf(out, "Created: %s\n", doc.CreatedAt.Format(time.RFC3339))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.GetContent(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get content: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}

func runDocumentDetails(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	details, err := documentService.GetDetails(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get details: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID: %s\n", details.ID)
	fmt.Fprintf(out, "File: %s\n", details.FileName)
	fmt.Fprintf(out, "Status: %s\n", details.Status)
	if details.MergedInto != "" {
		fmt.Fprintf(out, "Merged into: %s\n", details.MergedInto)
	}
	fmt.Fprintf(out, "Pages: %d\n", details.PageCount)
	fmt.Fprintf(out, "Chunks: %d\n", details.ChunkCount)
	fmt.Fprintf(out, "Updated: %s\n", details.UpdatedAt.Format(time.RFC3339))

	if len(details.Metadata) > 0 {
		fmt.Fprintln(out, "\nMetadata:")
		keys := make([]string, 0, len(details.Metadata))
		for k := range details.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %s\n", k, details.Metadata[k])
		}
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
