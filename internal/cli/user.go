package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewUserCmd создаёт группу команд для управления пользователями.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage bot users",
	}

	cmd.AddCommand(
		newUserListCmd(clientFn, outputFn),
		newUserShowCmd(clientFn, outputFn),
		newUserApproveCmd(clientFn, outputFn),
		newUserRejectCmd(clientFn, outputFn),
		newUserRemoveCmd(clientFn, outputFn),
	)

	return cmd
}

var userHeaders = []string{"ID", "USERNAME", "STATE", "TZ", "CREATED"}

func userRow(u UserResponse) []string {
	return []string{fmt.Sprintf("%d", u.ID), u.Username, u.State, u.TZOffset, u.CreatedAt}
}

func newUserListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := clientFn().ListUsers(state)
			if err != nil {
				return err
			}

			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = userRow(u)
			}
			outputFn().Print(userHeaders, rows, users)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (PENDING, APPROVED)")
	return cmd
}

func newUserShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show user details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().GetUser(args[0])
			if err != nil {
				return err
			}
			outputFn().Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}
}

func newUserApproveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a registration request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().ApproveUser(args[0])
			if err != nil {
				return err
			}
			out := outputFn()
			out.Success(fmt.Sprintf("User %d approved", user.ID))
			out.Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}
}

func newUserRejectCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a registration request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := clientFn().RejectUser(args[0])
			if err != nil {
				return err
			}
			out := outputFn()
			out.Success(fmt.Sprintf("User %d rejected", user.ID))
			out.Print(userHeaders, [][]string{userRow(*user)}, user)
			return nil
		},
	}
}

func newUserRemoveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().RemoveUser(args[0]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("User %s removed", args[0]))
			return nil
		},
	}
}
