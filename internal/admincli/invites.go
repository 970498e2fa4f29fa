package admincli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/services"
	"github.com/spf13/cobra"
)

func (c *cli) inviteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage registration invite codes",
	}
	cmd.AddCommand(c.inviteCreateCommand(), c.inviteListCommand(), c.inviteDeleteCommand())
	return cmd
}

func (c *cli) inviteCreateCommand() *cobra.Command {
	var role, prefix string
	var length int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a single-use invite code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			inv, err := b.Services.Invites.Create(cmd.Context(), access.System(), role, prefix, length)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s (%s)\n", inv.Code, inv.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "admin", "role granted on registration")
	cmd.Flags().StringVar(&prefix, "prefix", "", "code prefix, up to 10 characters")
	cmd.Flags().IntVar(&length, "length", services.DefaultInviteLength, "random part length")
	return cmd
}

func (c *cli) inviteListCommand() *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invite codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			list, err := b.Services.Invites.List(cmd.Context(), access.System(), active)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tROLE\tCREATED BY\tCREATED\tUSED BY")
			for _, inv := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", inv.Code, inv.Role, inv.CreatedBy, inv.CreatedAt.Format(time.DateTime), dash(inv.UsedBy))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only unused codes")
	return cmd
}

func (c *cli) inviteDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Revoke an invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Services.Invites.Delete(cmd.Context(), access.System(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "revoked %s\n", strings.ToUpper(strings.TrimSpace(args[0])))
			return nil
		},
	}
}
