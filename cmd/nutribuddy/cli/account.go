package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macromates/nutribuddy/internal/model"
	"github.com/macromates/nutribuddy/internal/service"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage sign-in accounts",
	}
	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountListCmd())
	return cmd
}

type accountCreateFlags struct {
	email      string
	name       string
	role       string
	clientID   int64
	noPassword bool
}

func newAccountCreateCmd() *cobra.Command {
	var f accountCreateFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision an account",
		Long: `Provision a sign-in account. The password is prompted for (without echo
on a terminal, or read as one line from piped input) and stored as a bcrypt hash.

Use --no-password for an account that will only ever sign in with GitHub; the
first GitHub sign-in with the same email links the two.

Example:
  nutribuddy account create --email admin@example.com --name "Site Admin" --role sysadmin
  echo 's3cret-pass' | nutribuddy account create --email ana@example.com --name Ana --role client --client-id 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(cmd, f)
		},
	}

	roles := make([]string, len(model.Roles))
	for i, r := range model.Roles {
		roles[i] = string(r)
	}

	cmd.Flags().StringVar(&f.email, "email", "", "Email address used to sign in")
	cmd.Flags().StringVar(&f.name, "name", "", "Display name")
	cmd.Flags().StringVar(&f.role, "role", "", "One of: "+strings.Join(roles, ", "))
	cmd.Flags().Int64Var(&f.clientID, "client-id", 0, "Client row a client account belongs to")
	cmd.Flags().BoolVar(&f.noPassword, "no-password", false, "Create a GitHub-only account")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("role")
	return cmd
}

func runAccountCreate(cmd *cobra.Command, f accountCreateFlags) error {
	in := service.AccountInput{
		Email:       f.email,
		DisplayName: f.name,
		Role:        model.Role(strings.ToLower(f.role)),
	}
	if cmd.Flags().Changed("client-id") {
		in.ClientID = &f.clientID
	}

	if !f.noPassword {
		password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if password == "" {
			return errors.New("password cannot be empty (use --no-password for GitHub-only accounts)")
		}
		in.Password = password
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	account, err := e.services.Auth.CreateAccount(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s for %s\n", account.Role, account.ID, account.Email)
	return nil
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			accounts, err := e.services.Auth.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tGITHUB")
			for _, a := range accounts {
				linked := "-"
				if a.GitHubID != nil {
					linked = "linked"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Email, a.DisplayName, a.Role, linked)
			}
			return w.Flush()
		},
	}
}

// readPassword prompts for a password. On a terminal input is not echoed;
// piped input is read as a single line.
func readPassword(in io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt) // newline after password input
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
