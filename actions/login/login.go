package login

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/PiotrWarzachowski/go-anonymizer/actions"
	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/logging"
	"github.com/PiotrWarzachowski/go-anonymizer/providers"
)

// LoginCommand is the CLI command for API login
var LoginCommand = &cli.Command{
	Name:  "login",
	Usage: "Login with your API client credentials",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "client-id",
			Aliases: []string{"c"},
			Usage:   "API client id",
		},
		&cli.StringFlag{
			Name:    "secret-id",
			Aliases: []string{"s"},
			Usage:   "API secret id (not recommended, use interactive prompt)",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Force new login even if session exists",
		},
	},
	Action: loginAction,
}

var LogoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "Forget the local session",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "clear-credentials",
			Usage: "Also delete saved client/secret ids",
		},
	},
	Action: logoutAction,
}

var StatusCommand = &cli.Command{
	Name:   "status",
	Usage:  "Check current login status",
	Action: statusAction,
}

var RefreshCommand = &cli.Command{
	Name:   "refresh",
	Usage:  "Trade the refresh token for a new session",
	Action: refreshAction,
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}
	cfg := provider.Config()

	if !cmd.Bool("force") {
		current := provider.Client().Session()
		if !current.Expired(time.Now()) {
			fmt.Println("✓ Already logged in")
			printSession(current)
			fmt.Printf("  Session storage: %s\n", provider.Storage().GetBasePath())
			return nil
		}
	}

	clientID := cmd.String("client-id")
	secretID := cmd.String("secret-id")

	if clientID == "" && secretID == "" {
		if cfg.HasEnvCredentials() {
			clientID, secretID = cfg.ClientID, cfg.SecretID
			fmt.Println("Using credentials from the environment")
		} else if saved, err := provider.Storage().LoadCredentials(); err == nil && saved != nil && saved.ClientID != "" {
			fmt.Printf("💾 Saved credentials found for %s\n", saved.ClientID)
			useSaved, _ := promptInput("Use saved credentials? [Y/n]: ")
			if useSaved == "" || strings.EqualFold(useSaved, "y") || strings.EqualFold(useSaved, "yes") {
				clientID, secretID = saved.ClientID, saved.SecretID
			}
		}
	}

	if clientID == "" {
		clientID, err = promptInput("Client ID: ")
		if err != nil {
			return fmt.Errorf("failed to read client id: %w", err)
		}
	}
	if secretID == "" {
		secretID, err = promptSecret("Secret ID: ")
		if err != nil {
			return fmt.Errorf("failed to read secret id: %w", err)
		}
	}

	fmt.Println("Logging in...")

	session, err := provider.Login(ctx, clientID, secretID, true)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			return logging.NewOperationError("login", clientID, errors.New("invalid client id or secret id"))
		}
		return logging.NewOperationError("login", clientID, err)
	}

	fmt.Printf("\n✓ Successfully logged in as %s\n", clientID)
	printSession(session)
	fmt.Printf("  Session saved to: %s\n", provider.Storage().GetBasePath())
	fmt.Println("  💾 Credentials cached for quick re-login")
	return nil
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}
	store := provider.Storage()
	clearCreds := cmd.Bool("clear-credentials")

	if !store.HasSession() && !(clearCreds && store.HasCredentials()) {
		fmt.Println("Not currently logged in")
		return nil
	}

	if err := provider.Logout(clearCreds); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Println("✓ Local session deleted")
	if clearCreds {
		fmt.Println("  Saved credentials deleted")
	} else if store.HasCredentials() {
		fmt.Println("  💾 Credentials still saved for quick re-login")
		fmt.Println("     Use 'logout --clear-credentials' to remove them")
	}
	return nil
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}

	current := provider.Client().Session()
	if !provider.Client().IsLoggedIn() {
		fmt.Println("Status: Not logged in")
		fmt.Println("\nUse 'go-anonymizer login' to authenticate")
		return nil
	}

	fmt.Println("Status: Logged in")
	fmt.Printf("  API: %s\n", provider.Client().BaseURL())
	printSession(current)
	if current.Expired(time.Now()) {
		fmt.Println("  Session: Expired (use 'go-anonymizer refresh')")
	} else {
		fmt.Println("  Session: Valid")
	}
	fmt.Printf("  Storage: %s\n", provider.Storage().GetBasePath())
	return nil
}

func refreshAction(ctx context.Context, cmd *cli.Command) error {
	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}
	if !provider.Client().IsLoggedIn() {
		return providers.ErrNotLoggedIn
	}

	session, err := provider.Refresh(ctx)
	if err != nil {
		return logging.NewOperationError("refresh", "", err)
	}
	fmt.Println("✓ Session refreshed")
	printSession(session)
	return nil
}

func printSession(s client.Session) {
	if exp := s.ExpiresAt(); !exp.IsZero() {
		fmt.Printf("  Expires: %s (%s)\n", exp.Local().Format("Jan 2, 3:04 PM"), time.Until(exp).Round(time.Second))
	}
}

// promptInput prompts for user input
func promptInput(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	return promptInput("")
}
