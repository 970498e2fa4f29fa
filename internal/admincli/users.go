package admincli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/spf13/cobra"
)

func (c *cli) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(c.userAddCommand(), c.userRoleCommand(), c.userListCommand())
	return cmd
}

func (c *cli) userAddCommand() *cobra.Command {
	var username, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account, prompting for its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				var err error
				if username, err = GetSimpleText(c.in, "Enter username", c.out); err != nil {
					return err
				}
			}
			var want models.Role
			if role != "" {
				var err error
				if want, err = models.ParseRole(role); err != nil {
					return err
				}
			}

			pw, err := GetPassword(c.in, c.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			u, err := b.Services.Users.Register(cmd.Context(), username, string(pw), "")
			if err != nil {
				return err
			}
			if want != "" && want != u.Role {
				if err := b.Services.Users.SetRole(cmd.Context(), access.System(), u.Username, string(want)); err != nil {
					return err
				}
				u.Role = want
			}
			fmt.Fprintf(c.out, "created %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVar(&role, "role", "", "user or admin (default: admin for the first account, else user)")
	return cmd
}

func (c *cli) userRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "role <username> <user|admin>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Services.Users.SetRole(cmd.Context(), access.System(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s is now %s\n", args[0], strings.ToLower(strings.TrimSpace(args[1])))
			return nil
		},
	}
}

func (c *cli) userListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			users, err := b.Services.Users.List(cmd.Context(), access.System())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tROLE\tINVITE\tCREATED")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Username, u.Role, dash(u.InviteUsed), u.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
