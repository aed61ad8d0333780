package command

import (
	"fmt"
	"io"
	"strconv"

	"library-circulation/cmd/library-cli/command/client"
	"library-circulation/internal/circulation/dto"

	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Browse the catalog",
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every book and how many copies are on the shelf",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := client.NewHTTPClient(apiURL).ListBooks(ctx)
		if err != nil {
			return fmt.Errorf("could not list books: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(res.Books) == 0 {
			fmt.Fprintln(out, "The catalog is empty")
			return nil
		}
		fmt.Fprintf(out, "%d books\n", len(res.Books))
		fmt.Fprintln(out, "─────────────────────────────────────────────────────────")
		for _, b := range res.Books {
			printBook(out, b)
		}
		return nil
	},
}

var booksShowCmd = &cobra.Command{
	Use:   "show [book_id]",
	Short: "Show one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid book ID %q", args[0])
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := client.NewHTTPClient(apiURL).GetBook(ctx, id)
		if err != nil {
			return fmt.Errorf("could not fetch book: %w", err)
		}
		printBook(cmd.OutOrStdout(), res.Book)
		return nil
	},
}

func printBook(out io.Writer, b dto.BookResponse) {
	fmt.Fprintf(out, "[%d] %s by %s\n", b.ID, b.Title, b.Author)
	if b.Department != nil {
		fmt.Fprintf(out, "     Department: %s\n", *b.Department)
	}
	fmt.Fprintf(out, "     Available: %d of %d\n", b.AvailableCopies, b.TotalCopies)
}

func init() {
	booksCmd.AddCommand(booksListCmd, booksShowCmd)
}
