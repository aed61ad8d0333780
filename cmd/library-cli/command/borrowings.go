package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var borrowCmd = &cobra.Command{
	Use:   "borrow [book_id]",
	Short: "Borrow one copy of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid book ID %q", args[0])
		}

		c, creds, err := authenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.Borrow(ctx, creds.StudentID, bookID)
		if err != nil {
			return fmt.Errorf("could not borrow book %d: %w", bookID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Borrowed. Loan %s is due on %s\n", res.BorrowingID, res.DueDate)
		return nil
	},
}

var returnCmd = &cobra.Command{
	Use:   "return [borrowing_id]",
	Short: "Return a borrowed book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authenticatedClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.Return(ctx, args[0])
		if err != nil {
			return fmt.Errorf("could not return %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Returned on %s\n", res.ReturnedDate)
		return nil
	},
}

var loansCmd = &cobra.Command{
	Use:   "loans [student_id]",
	Short: "List borrowings, your own by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, creds, err := authenticatedClient()
		if err != nil {
			return err
		}
		studentID := creds.StudentID
		if len(args) == 1 {
			studentID = args[0]
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.ListBorrowings(ctx, studentID)
		if err != nil {
			return fmt.Errorf("could not list borrowings: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(res.Borrowings) == 0 {
			fmt.Fprintln(out, "No borrowings")
			return nil
		}
		for _, b := range res.Borrowings {
			state := b.Status
			if b.Overdue {
				state = "OVERDUE"
			}
			fmt.Fprintf(out, "%s  %-8s %s (book %d)\n", b.BorrowingID, state, b.Title, b.BookID)
			if b.ReturnedDate != nil {
				fmt.Fprintf(out, "     borrowed %s, returned %s\n", b.BorrowedDate, *b.ReturnedDate)
			} else {
				fmt.Fprintf(out, "     borrowed %s, due %s\n", b.BorrowedDate, b.DueDate)
			}
		}
		return nil
	},
}
