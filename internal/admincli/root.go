// Package admincli implements the studymate-admin command line: schema
// migrations, account bootstrap and invite management run directly
// against storage as the system actor.
package admincli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server"
	"github.com/dmitrijs2005/studymate/internal/server/blobstore"
	"github.com/dmitrijs2005/studymate/internal/server/config"
	"github.com/spf13/cobra"
)

// Backend is an opened storage plus the services built over it.
type Backend struct {
	Services *server.Services
	close    func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Opener connects to storage (applying migrations) for one command run.
type Opener func(ctx context.Context, cfg *config.Config) (*Backend, error)

// OpenBackend is the production Opener. Admin commands never touch uploads,
// so the blob store is always a no-op.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	db, m, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)
	b := &Backend{Services: server.NewServices(db, m, cfg, blobstore.NopStore{}, logger)}
	if db != nil {
		b.close = db.Close
	}
	return b, nil
}

type rootOptions struct {
	envFile string
	storage string
	dsn     string
}

// args translates root flags into the server's config flag syntax so the
// same defaults, dotenv and environment layers apply.
func (o rootOptions) args() []string {
	var args []string
	if o.envFile != "" {
		args = append(args, "-envfile", o.envFile)
	}
	if o.storage != "" {
		args = append(args, "-storage", o.storage)
	}
	if o.dsn != "" {
		args = append(args, "-d", o.dsn)
	}
	return args
}

// cli carries what every subcommand needs.
type cli struct {
	opts   rootOptions
	open   Opener
	in     *bufio.Reader
	out    io.Writer
	loaded *config.Config
}

func (c *cli) backend(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load(c.opts.args())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.loaded = cfg
	return c.open(ctx, cfg)
}

// NewRootCommand assembles the command tree. open may be nil for OpenBackend.
func NewRootCommand(open Opener, in io.Reader, out io.Writer) *cobra.Command {
	if open == nil {
		open = OpenBackend
	}
	c := &cli{open: open, in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "studymate-admin",
		Short:         "Administrative tasks for a studymate deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&c.opts.envFile, "envfile", "", "dotenv file to load")
	pf.StringVar(&c.opts.storage, "storage", "", "storage backend (postgres or memory)")
	pf.StringVar(&c.opts.dsn, "dsn", "", "PostgreSQL DSN")

	root.AddCommand(c.migrateCommand(), c.userCommand(), c.inviteCommand())
	return root
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := c.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()
			fmt.Fprintf(c.out, "migrations applied (%s)\n", c.loaded.Storage)
			return nil
		},
	}
}
