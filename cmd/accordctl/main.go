// Command accordctl is a terminal client for an Accord server. It
// drives the same session manager a desktop frontend would, persisting
// the bearer token under the user config dir so sessions survive
// restarts.
//
// Usage:
//
//	accordctl [-server URL] [-v] <command> [flags]
//
// Commands:
//
//	register  -name NAME -email EMAIL [-password PW]
//	login     -email EMAIL [-password PW]
//	whoami
//	dashboard
//	watch
//	logout
//
// The password can also be supplied via ACCORD_PASSWORD.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/accord/internal/client"
	"github.com/dalemusser/accord/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "accordctl:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("accordctl", flag.ExitOnError)
	server := fs.String("server", envOr("ACCORD_SERVER", "http://localhost:3000"), "Accord server base URL")
	verbose := fs.Bool("v", false, "log client activity")
	fs.Usage = usage(fs)
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no command given")
	}
	cmd, args := fs.Arg(0), fs.Args()[1:]

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	tokenPath, err := client.DefaultTokenPath()
	if err != nil {
		return fmt.Errorf("resolve token path: %w", err)
	}
	store := &client.FileTokenStore{Path: tokenPath}
	api := client.New(*server,
		client.WithTokenStore(store),
		client.WithLogger(logger))

	mgr := session.NewManager(api, api, logger)
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "register":
		return cmdRegister(ctx, mgr, args)
	case "login":
		return cmdLogin(ctx, mgr, args)
	case "whoami":
		return cmdWhoami(mgr)
	case "dashboard":
		return cmdDashboard(ctx, api)
	case "watch":
		return cmdWatch(mgr)
	case "logout":
		return cmdLogout(ctx, mgr)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "usage: accordctl [-server URL] [-v] <register|login|whoami|dashboard|watch|logout> [flags]")
		fs.PrintDefaults()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("ACCORD_PASSWORD")
}

func cmdRegister(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	pw := fs.String("password", "", "password (or set ACCORD_PASSWORD)")
	_ = fs.Parse(args)

	if err := mgr.Register(ctx, *name, *email, password(*pw)); err != nil {
		return err
	}
	snap := mgr.Snapshot()
	fmt.Printf("registered and signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
	return nil
}

func cmdLogin(ctx context.Context, mgr *session.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	pw := fs.String("password", "", "password (or set ACCORD_PASSWORD)")
	_ = fs.Parse(args)

	if err := mgr.Login(ctx, *email, password(*pw)); err != nil {
		return err
	}
	snap := mgr.Snapshot()
	name := snap.User.Name
	if name == "" {
		name = snap.User.Email
	}
	fmt.Printf("signed in as %s\n", name)
	return nil
}

// cmdWhoami waits for the bootstrap probe to settle, then prints the
// session state.
func cmdWhoami(mgr *session.Manager) error {
	snap, err := settled(mgr)
	if err != nil {
		return err
	}
	switch snap.Status {
	case session.StatusAuthenticated:
		if snap.User.Placeholder() {
			fmt.Printf("signed in as %s (no profile yet)\n", snap.User.Email)
			return nil
		}
		fmt.Printf("signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
	default:
		fmt.Println("not signed in")
	}
	return nil
}

func cmdDashboard(ctx context.Context, api *client.Client) error {
	var out json.RawMessage
	if err := api.Dashboard(ctx, &out); err != nil {
		return err
	}
	var pretty map[string]any
	if err := json.Unmarshal(out, &pretty); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// cmdWatch streams session snapshots until interrupted.
func cmdWatch(mgr *session.Manager) error {
	ch, cancel := mgr.Watch()
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case snap := <-ch:
			line := fmt.Sprintf("status=%s loading=%t", snap.Status, snap.Loading)
			if snap.User != nil {
				line += fmt.Sprintf(" user=%s", snap.User.Email)
			}
			fmt.Println(line)
		case <-stop:
			return nil
		}
	}
}

func cmdLogout(ctx context.Context, mgr *session.Manager) error {
	if err := mgr.Logout(ctx); err != nil {
		// The local session is cleared even when the server call fails.
		fmt.Fprintln(os.Stderr, "warning: server sign-out failed:", err)
	}
	fmt.Println("signed out")
	return nil
}

// settled blocks until the session leaves the bootstrap state.
func settled(mgr *session.Manager) (session.Snapshot, error) {
	ch, cancel := mgr.Watch()
	defer cancel()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Status != session.StatusUnknown && !snap.Loading {
				return snap, nil
			}
		case <-deadline:
			return session.Snapshot{}, fmt.Errorf("timed out waiting for session state")
		}
	}
}
