// CLI tool to create a user with a bcrypt-hashed password and a default athlete profile.
// Usage: go run ./cmd/create-user [--username u] [--email e] [--weight-kg 70] [--goal maintain]
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

type options struct {
	username string
	email    string
	weightKg float64
	goal     string
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:          "create-user",
		Short:        "Create a user and their athlete profile",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "username (prompted if empty)")
	cmd.Flags().StringVar(&opts.email, "email", "", "email (prompted if empty)")
	cmd.Flags().Float64Var(&opts.weightKg, "weight-kg", 0, "body weight in kg for the profile (0 leaves it unset)")
	cmd.Flags().StringVar(&opts.goal, "goal", "maintain", "goal: lose, performance or maintain")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func prompt(r *bufio.Reader, w io.Writer, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	if opts.weightKg < 0 || opts.weightKg > 250 {
		return fmt.Errorf("--weight-kg must be between 0 and 250")
	}

	reader := bufio.NewReader(in)
	if opts.username == "" {
		opts.username = prompt(reader, out, "Username")
	}
	if opts.email == "" {
		opts.email = prompt(reader, out, "Email")
	}
	password := prompt(reader, out, "Password")
	if opts.username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	authToken := uuid.New().String()

	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@username, @email, @password, @authToken) RETURNING id`,
		pgx.NamedArgs{
			"username": opts.username, "email": opts.email,
			"password": string(hash), "authToken": authToken,
		}).Scan(&userID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	var weight *float64
	if opts.weightKg > 0 {
		weight = &opts.weightKg
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO athlete_profiles (user_id, weight_kg, goal) VALUES (@userID, @weightKg, @goal)`,
		pgx.NamedArgs{"userID": userID, "weightKg": weight, "goal": string(nutrition.ParseGoal(opts.goal))})
	if err != nil {
		return fmt.Errorf("create athlete profile: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	fmt.Fprintf(out, "\nUser created successfully!\n")
	fmt.Fprintf(out, "  ID:         %d\n", userID)
	fmt.Fprintf(out, "  Username:   %s\n", opts.username)
	fmt.Fprintf(out, "  Auth Token: %s\n", authToken)
	return nil
}
