package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/subcommands"

	"stocktracker/internal/backend"
)

type loginCmd struct {
	app      *App
	email    string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in to the backend" }
func (*loginCmd) Usage() string {
	return `login -email <email> -password <password>
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "account email (required)")
	f.StringVar(&c.password, "password", "", "account password (required)")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	accounts, err := c.app.accounts()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	err = accounts.Login(ctx, backend.Credentials{Email: c.email, Password: c.password})
	if err != nil {
		return c.app.accountFailure(err)
	}
	fmt.Fprintln(c.app.out(), "Login successful!")
	return subcommands.ExitSuccess
}

type registerCmd struct {
	app      *App
	name     string
	email    string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create a backend account" }
func (*registerCmd) Usage() string {
	return `register -name <name> -email <email> -password <password>
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "account email (required)")
	f.StringVar(&c.password, "password", "", "account password, at least 6 characters (required)")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	accounts, err := c.app.accounts()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	err = accounts.Register(ctx, backend.Registration{Name: c.name, Email: c.email, Password: c.password})
	if err != nil {
		return c.app.accountFailure(err)
	}
	fmt.Fprintln(c.app.out(), "Registration successful! Please login.")
	return subcommands.ExitSuccess
}

// accountFailure prints err the way the login form shows it.
func (a *App) accountFailure(err error) subcommands.ExitStatus {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrInvalidEmail), errors.Is(err, backend.ErrInvalidPassword):
		fmt.Fprintln(a.errOut(), sentence(err.Error()))
		return subcommands.ExitUsageError
	case errors.As(err, &apiErr):
		fmt.Fprintln(a.errOut(), apiErr.Message)
	default:
		fmt.Fprintln(a.errOut(), "An error occurred. Please try again.")
	}
	return subcommands.ExitFailure
}

// sentence capitalizes s and ends it with a period.
func sentence(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	s = string(r)
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}
