package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zoidster/BirbBot/pkg/auth"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

var logoutAll bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Reddit API credentials",
	Long: `Manage the Reddit script-app credentials used by the api collector mode.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (BIRBBOT_CLIENT_ID, BIRBBOT_CLIENT_SECRET,
    BIRBBOT_USERNAME, BIRBBOT_PASSWORD), read only`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Reddit credentials securely",
	Long: `Store the credentials of a Reddit script app.

Create one at https://www.reddit.com/prefs/apps (type "script"). You will be
prompted for the app's client id and secret and for the Reddit account the
app belongs to. Secrets are not echoed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

// prompter reads answers from stdin, hiding secrets on a terminal
type prompter struct {
	out    io.Writer
	reader *bufio.Reader
	fd     int
}

func newPrompter(out io.Writer) *prompter {
	return &prompter{out: out, reader: bufio.NewReader(os.Stdin), fd: int(os.Stdin.Fd())}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	input, err := p.reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	p := newPrompter(cmd.OutOrStdout())
	account := &auth.Account{}
	if len(args) > 0 {
		account.Username = args[0]
	}

	steps := []struct {
		label  string
		dst    *string
		secret bool
	}{
		{"Reddit username", &account.Username, false},
		{"Reddit password", &account.Password, true},
		{"Client id", &account.ClientID, false},
		{"Client secret", &account.ClientSecret, true},
		{"User agent (Enter for default)", &account.UserAgent, false},
	}
	for _, step := range steps {
		if *step.dst != "" {
			continue
		}
		read := p.line
		if step.secret {
			read = p.secret
		}
		v, err := read(step.label)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(step.label), err)
		}
		*step.dst = v
	}

	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials stored for " + account.Username)
	if auth.KeyringAvailable() {
		ui.PrintInfo("Storage", "system keychain")
	} else {
		ui.PrintInfo("Storage", "encrypted file")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nSet reddit.mode to \"api\" (or pass --mode api) to use them.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return err
		}
		ui.PrintSuccess("All stored credentials removed")
		return nil
	}

	username := ""
	if len(args) > 0 {
		username = args[0]
	} else {
		username, err = newPrompter(cmd.OutOrStdout()).line("Username to remove")
		if err != nil {
			return err
		}
	}

	if err := manager.Delete(username); err != nil {
		return err
	}
	ui.PrintSuccess("Credentials removed for " + username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored accounts. Run 'birbbot auth login' to add one.")
		return nil
	}
	return printAccounts(cmd.OutOrStdout(), accounts)
}

func printAccounts(w io.Writer, accounts []*auth.Account) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tCLIENT ID\tSECRET\tMODIFIED")
	for _, a := range accounts {
		s := auth.SanitizeAccount(a)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Username, s.ClientID, s.ClientSecret, s.LastModified.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
