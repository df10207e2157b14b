package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/config"
	"probate-backend/internal/shared/storage/db"
	"probate-backend/internal/users"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// repoOpener returns the user repository and a cleanup func.
type repoOpener func(ctx context.Context) (users.Repo, func(), error)

func openPGUsers(ctx context.Context) (users.Repo, func(), error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return &users.PGRepo{DB: sqlDB}, func() { _ = sqlDB.Close() }, nil
}

func userCmd(open repoOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage password accounts",
	}
	cmd.AddCommand(userAddCmd(open))
	return cmd
}

func userAddCmd(open repoOpener) *cobra.Command {
	var (
		email string
		name  string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a password account",
		Long: `Create a password account. The password is read from the terminal
without echo, or from the first line of stdin when it is not a terminal.`,
		Example: `  probatectl user add --email paralegal@example.com --name "Dana Reyes" --admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var role auth.Role
			if admin {
				role = auth.RoleAdmin
			}
			svc := users.NewService(repo, nil, nil)
			user, err := svc.CreateAccount(ctx, email, password, name, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) role=%s\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func promptPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
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
