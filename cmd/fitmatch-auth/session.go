package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	domainauth "github.com/target/fitmatch-auth/internal/domain/auth"
	apperrors "github.com/target/fitmatch-auth/internal/errors"
)

type sessionOptions struct {
	Profile string
	JSON    bool
}

func parseSessionFlags(name string, args []string) (sessionOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionOptions
	fs.StringVar(&opts.Profile, "profile", "default", "Name of the stored session")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON output")

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, err
	}
	return opts, nil
}

func runDiscovery(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("discovery", args)
	if err != nil {
		return err
	}

	doc := domainauth.Resolve(cmdCtx.Config.Auth.Domain)
	if opts.JSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	w := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Issuer", doc.Issuer},
		{"Authorization", doc.AuthorizationEndpoint},
		{"Token", doc.TokenEndpoint},
		{"Revocation", doc.RevocationEndpoint},
		{"Userinfo", doc.UserinfoEndpoint},
	}
	for _, row := range rows {
		if err := writef(w, "%s\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("write discovery row: %w", err)
		}
	}
	return w.Flush()
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("login", args)
	if err != nil {
		return err
	}

	rt, err := openSession(cmdCtx, opts.Profile)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := rt.Session.Restore(cmdCtx.Ctx); err != nil {
		cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "restore session failed", "error", err)
	}
	if rt.Session.State() == domainauth.SessionLoggedIn {
		return writeln(cmdCtx.Out, "Already signed in.")
	}

	if err := rt.startRedirector(cmdCtx.Ctx); err != nil {
		return err
	}
	if err := writef(cmdCtx.Out, "Opening the browser to sign in (callback %s)...\n", rt.Redirector.RedirectURI()); err != nil {
		return err
	}

	result, err := rt.Session.Login(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	switch result.Kind {
	case domainauth.ResultSuccess:
		return writeln(cmdCtx.Out, "Signed in.")
	case domainauth.ResultCancelled:
		return writeln(cmdCtx.Out, "Sign-in cancelled.")
	default:
		return fmt.Errorf("sign-in failed: %s", result.Reason)
	}
}

func runLogout(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("logout", args)
	if err != nil {
		return err
	}

	rt, err := openSession(cmdCtx, opts.Profile)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := rt.Session.Restore(cmdCtx.Ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if rt.Session.State() != domainauth.SessionLoggedIn {
		return writeln(cmdCtx.Out, "Not signed in.")
	}

	if err := rt.startRedirector(cmdCtx.Ctx); err != nil {
		return err
	}
	if err := rt.Session.Logout(cmdCtx.Ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return writeln(cmdCtx.Out, "Signed out.")
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("whoami", args)
	if err != nil {
		return err
	}

	rt, err := openSession(cmdCtx, opts.Profile)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := rt.Session.Restore(cmdCtx.Ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	profile, err := rt.Session.Profile(cmdCtx.Ctx)
	if err != nil {
		if apperrors.IsInvalidState(err) {
			return errors.New("not signed in; run `fitmatch-auth login` first")
		}
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	w := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	if err := writef(w, "Subject\t%s\nName\t%s\nEmail\t%s\nVerified\t%t\n",
		profile.Subject, profile.Name, profile.Email, profile.EmailVerified); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if exp := rt.Session.Session().ExpiresAt; !exp.IsZero() {
		if err := writef(w, "Expires\t%s\n", exp.Format("2006-01-02 15:04:05 MST")); err != nil {
			return fmt.Errorf("write expiry: %w", err)
		}
	}
	return w.Flush()
}
