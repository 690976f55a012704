package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"expenseport/internal/dto"
	"expenseport/internal/gateway"
	"expenseport/internal/guard"
	"expenseport/internal/localstate"
	"expenseport/internal/platform/config"
	"expenseport/internal/screens"
	"expenseport/internal/session"
)

const usage = `Usage: expenseport <command> [flags]

Commands:
  login       Log in and open your dashboard
  signup      Create an account
  logout      Log out and clear the local session
  whoami      Show the current session
  submit      Submit an expense with a receipt
  list        Show your expense overview
  review      Show the admin review dashboard
  approve     Approve a pending expense (admin)
  reject      Reject a pending expense (admin)
  policies    List expense policies (admin)
  policy-add  Add an expense policy (admin)
  dashboard   Show the spending dashboard (admin)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := localstate.Open(cfg.StateDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	a := newApp(cfg, db, logger, stdin, stdout)
	return a.dispatch(context.Background(), args[0], args[1:])
}

// app wires the screens together and doubles as the Navigator: navigating
// renders the target screen.
type app struct {
	cfg    *config.Config
	store  *session.Store
	gw     *gateway.Client
	guard  *guard.Guard
	stdin  io.Reader
	out    io.Writer
	logger *slog.Logger

	current guard.Page
}

func newApp(cfg *config.Config, db *localstate.DB, logger *slog.Logger, stdin io.Reader, out io.Writer) *app {
	a := &app{cfg: cfg, stdin: stdin, out: out, logger: logger}
	a.store = session.NewStore(db, logger)
	httpc := &http.Client{Timeout: cfg.HTTPTimeout}
	a.gw = gateway.NewClient(cfg.APIBaseURL, httpc, a.store, a, logger)
	a.guard = guard.New(a.store, a, logger)
	return a
}

// Current implements guard.Navigator.
func (a *app) Current() guard.Page { return a.current }

// To implements guard.Navigator by rendering the target page.
func (a *app) To(page guard.Page) {
	if page == a.current {
		return
	}
	a.current = page
	ctx := context.Background()

	switch page {
	case guard.PageLogin:
		fmt.Fprintln(a.out, "Please log in: expenseport login")
	case guard.PageOverview:
		s := screens.NewOverviewScreen(a.gw, a.guard, a, a.out)
		if err := s.Load(ctx); err == nil {
			s.Render()
		}
	case guard.PageAdmin:
		s := screens.NewAdminScreen(a.gw, a.guard, a, a.out)
		if err := s.Load(ctx); err == nil {
			s.Render()
		}
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "signup":
		return a.signup(ctx, args)
	case "logout":
		a.gw.Logout(ctx)
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "submit":
		return a.submit(ctx, args)
	case "list":
		a.current = guard.PageOverview
		s := screens.NewOverviewScreen(a.gw, a.guard, a, a.out)
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("%s", s.Message())
		}
		s.Render()
		return nil
	case "review":
		a.current = guard.PageAdmin
		s := screens.NewAdminScreen(a.gw, a.guard, a, a.out)
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("%s", s.Message())
		}
		s.Render()
		return nil
	case "approve", "reject":
		return a.review(ctx, command, args)
	case "policies":
		a.current = guard.PagePolicies
		s := screens.NewPoliciesScreen(a.gw, a.guard, a.out)
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("%s", s.Message())
		}
		s.Render()
		return nil
	case "policy-add":
		return a.policyAdd(ctx, args)
	case "dashboard":
		a.current = guard.PageDashboard
		s := screens.NewDashboardScreen(a.gw, a.guard, a.out)
		if err := s.Load(ctx); err != nil {
			return fmt.Errorf("%s", s.Message())
		}
		s.Render()
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("user", "", "Username")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, pass, err := a.credentials(*username, *password)
	if err != nil {
		return err
	}

	a.current = guard.PageLogin
	s := screens.NewLoginScreen(a.gw, a.store, a, a.out)
	if err := s.Run(ctx, user, pass); err != nil {
		return fmt.Errorf("%s", s.Message())
	}
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	username := fs.String("user", "", "Username")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, pass, err := a.credentials(*username, *password)
	if err != nil {
		return err
	}
	confirm := pass
	if *password == "" {
		fmt.Fprint(a.out, "Confirm password: ")
		confirm, err = readPassword(a.stdin)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out)
	}

	a.current = guard.PageSignup
	s := screens.NewSignupScreen(a.gw, a, a.out)
	if err := s.Run(ctx, user, pass, confirm); err != nil {
		return fmt.Errorf("%s", s.Message())
	}
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user := a.store.User()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	vendor := fs.String("vendor", "", "Vendor / expense name")
	category := fs.String("category", "", "Category")
	amount := fs.String("amount", "", "Amount")
	date := fs.String("date", "", "Date (YYYY-MM-DD)")
	description := fs.String("description", "", "Description")
	receipt := fs.String("receipt", "", "Path to the receipt file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.current = guard.PageSubmit
	s := screens.NewSubmitScreen(a.gw, a.guard, a, a.out)
	s.Form = dto.SubmitExpenseRequest{
		Vendor:      *vendor,
		Category:    *category,
		Amount:      *amount,
		Date:        *date,
		Description: *description,
		ReceiptPath: *receipt,
	}
	if _, err := s.Submit(ctx); err != nil {
		return fmt.Errorf("%s", s.Message())
	}
	return nil
}

func (a *app) review(ctx context.Context, action string, args []string) error {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	id := fs.String("id", "", "Expense id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing required flag: id")
	}

	a.current = guard.PageAdmin
	s := screens.NewAdminScreen(a.gw, a.guard, a, a.out)
	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("%s", s.Message())
	}

	var err error
	if action == "approve" {
		err = s.Approve(ctx, *id)
	} else {
		err = s.Reject(ctx, *id)
	}
	if err != nil {
		return fmt.Errorf("%s", s.Message())
	}
	fmt.Fprintln(a.out, s.Message())
	return nil
}

func (a *app) policyAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("policy-add", flag.ContinueOnError)
	category := fs.String("category", "", "Category")
	limit := fs.String("limit", "", "Limit amount")
	role := fs.String("role", "employee", "Role the limit applies to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.current = guard.PagePolicies
	s := screens.NewPoliciesScreen(a.gw, a.guard, a.out)
	err := s.Create(ctx, dto.CreatePolicyRequest{
		Category: *category,
		Limit:    *limit,
		Role:     *role,
	})
	if err != nil {
		return fmt.Errorf("%s", s.Message())
	}
	fmt.Fprintln(a.out, s.Message())
	return nil
}

func (a *app) credentials(username, password string) (string, string, error) {
	if username == "" {
		fmt.Fprint(a.out, "Username: ")
		scanner := bufio.NewScanner(a.stdin)
		if !scanner.Scan() {
			return "", "", fmt.Errorf("failed to read username")
		}
		username = strings.TrimSpace(scanner.Text())
	}
	if password == "" {
		fmt.Fprint(a.out, "Password: ")
		var err error
		password, err = readPassword(a.stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(a.out)
	}
	return username, password, nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
