package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pdfmerge/internal/bootstrap"
	accessdomain "pdfmerge/internal/modules/access/domain"
	"pdfmerge/internal/platform/config"
	apperrors "pdfmerge/internal/platform/errors"
)

const (
	maxAttempts         = 3
	mergeFailureMessage = "Error combining PDFs. Please try again."
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pdfmerge",
		Short:         "Combine PDF files behind a password gate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pdfmerge/config.yaml)")

	root.AddCommand(newTUICmd(&configPath))
	root.AddCommand(newCombineCmd(&configPath))
	root.AddCommand(newPreviewCmd(&configPath))
	root.AddCommand(newLoginCmd(&configPath))
	root.AddCommand(newLogoutCmd(&configPath))
	root.AddCommand(newStatusCmd(&configPath))
	root.AddCommand(newHashCmd())
	return root
}

func loadApp(configPath string, mode bootstrap.Mode) (*bootstrap.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, mode)
}

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, bootstrap.ModeTUI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(app)
		},
	}
}

func newCombineCmd(configPath *string) *cobra.Command {
	var outName string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "combine <file.pdf>... [--out name]",
		Short: "Combine PDF files in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*configPath, bootstrap.ModeCLI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			ctx := context.Background()
			if err := ensureSession(ctx, cmd, app, passwordStdin); err != nil {
				return err
			}

			out, added, err := app.AssemblerCLI.Combine(ctx, args, outName)
			if err != nil {
				if errors.Is(err, apperrors.ErrMergeFailed) {
					return fmt.Errorf("%s (%w)", mergeFailureMessage, err)
				}
				return err
			}
			if out.Skipped {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no PDF files to combine")
				return nil
			}
			for _, e := range added {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\n", e.Position, e.Name, e.SizeLabel)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d documents, %d bytes)\n", out.Path, out.Documents, out.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&outName, "out", "", "output file name without extension (default combined-document)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newPreviewCmd(configPath *string) *cobra.Command {
	var outPath string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "preview <file.pdf> --out <thumb.png>",
		Short: "Render the first page of a PDF to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outPath) == "" {
				return fmt.Errorf("--out is required")
			}
			app, err := loadApp(*configPath, bootstrap.ModeCLI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			ctx := context.Background()
			if err := ensureSession(ctx, cmd, app, passwordStdin); err != nil {
				return err
			}

			preview, err := app.AssemblerCLI.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, preview.PNG, 0o644); err != nil {
				return fmt.Errorf("write preview: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d page(s), preview=%s\n", preview.Name, preview.PageCount, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "png output path")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLoginCmd(configPath *string) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify the password and start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, bootstrap.ModeCLI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := login(context.Background(), cmd, app, passwordStdin); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session valid for %s\n", app.Config.SessionDuration())
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, bootstrap.ModeCLI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.AccessCLI.Logout(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath, bootstrap.ModeCLI)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			status, err := app.AccessCLI.Status(context.Background())
			if err != nil {
				return err
			}
			if !status.Authorized {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session active\ncreated: %s\nexpires: %s\nremaining: %s\n",
				status.CreatedAt.Format(time.RFC3339),
				status.ExpiresAt.Format(time.RFC3339),
				status.Remaining.Round(time.Second),
			)
			return nil
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the credential digest for a password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				p, err := readPassword(cmd, false)
				if err != nil {
					return err
				}
				password = p
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), accessdomain.HashCredential(password))
			return nil
		},
	}
}

// ensureSession prompts for the password unless a valid session already exists.
func ensureSession(ctx context.Context, cmd *cobra.Command, app *bootstrap.App, passwordStdin bool) error {
	ok, err := app.AccessCLI.CheckSession(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return login(ctx, cmd, app, passwordStdin)
}

func login(ctx context.Context, cmd *cobra.Command, app *bootstrap.App, passwordStdin bool) error {
	attempts := maxAttempts
	if passwordStdin || !isTerminal(cmd.InOrStdin()) {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		password, err := readPassword(cmd, passwordStdin)
		if err != nil {
			return err
		}
		out, err := app.AccessCLI.Login(ctx, password)
		switch {
		case err == nil:
			if !out.Persisted {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: session could not be saved, you will be asked again next time")
			}
			return nil
		case errors.Is(err, apperrors.ErrCredentialMismatch):
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Incorrect password. Please try again.")
		default:
			return err
		}
	}
	return fmt.Errorf("%w after %d attempt(s)", apperrors.ErrNotAuthorized, attempts)
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
