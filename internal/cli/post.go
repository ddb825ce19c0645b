package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPostCmd создаёт группу команд для инспекции постов.
func NewPostCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Inspect and cancel scheduled posts",
	}

	cmd.AddCommand(
		newPostListCmd(clientFn, outputFn),
		newPostShowCmd(clientFn, outputFn),
		newPostCancelCmd(clientFn, outputFn),
	)

	return cmd
}

var postHeaders = []string{"ID", "OWNER", "STATUS", "DISPATCH_AT", "ERROR"}

func postRow(p PostResponse) []string {
	return []string{p.ID, fmt.Sprintf("%d", p.OwnerID), p.Status, p.DispatchAt, p.Error}
}

func newPostListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListPostsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := clientFn().ListPosts(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(posts))
			for i, p := range posts {
				rows[i] = postRow(p)
			}
			outputFn().Print(postHeaders, rows, posts)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.View, "view", "scheduled", "View: scheduled or history")
	cmd.Flags().Int64Var(&opts.OwnerID, "owner", 0, "Filter by owner Telegram ID")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "History size limit")
	return cmd
}

func newPostShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show post with per-target deliveries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := clientFn().GetPost(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(postHeaders, [][]string{postRow(*post)}, post)

			if len(post.Deliveries) > 0 && !out.jsonMode {
				headers := []string{"PLATFORM", "TARGET", "TITLE", "STATUS", "METHOD", "ERROR"}
				rows := make([][]string, len(post.Deliveries))
				for i, d := range post.Deliveries {
					rows[i] = []string{
						d.Platform, fmt.Sprintf("%d", d.TargetID), d.TargetTitle,
						d.Status, d.Method, d.Error,
					}
				}
				out.Table(headers, rows)
			}
			return nil
		},
	}
}

func newPostCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a scheduled post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := clientFn().CancelPost(args[0])
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Post %s cancelled", post.ID))
			out.Print(postHeaders, [][]string{postRow(*post)}, post)
			return nil
		},
	}
}
