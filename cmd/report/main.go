// Command report prints season standings from catalog, claim and profile
// JSON files without running the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
	app "github.com/remoterob/fish-bingo/internal/app"
	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/types"
	"github.com/remoterob/fish-bingo/pkg/logger"
)

// Default configuration constants.
const (
	defaultTopN      = 10
	defaultPerGender = 3
	defaultTimeout   = time.Minute
)

type report struct {
	Top        []types.Entry       `json:"top"`
	Genders    []types.Group       `json:"genders"`
	Clubs      []model.ClubSummary `json:"clubs"`
	Unresolved []types.Unresolved  `json:"unresolved"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("report failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		speciesPath  = fs.String("species", "data/species.json", "Species catalog JSON")
		bonusPath    = fs.String("bonuses", "data/bonuses.json", "Bonus catalog JSON (empty for none)")
		claimsPath   = fs.String("claims", "claims.json", "Claims JSON array")
		profilesPath = fs.String("profiles", "", "Profiles JSON array (optional)")
		topN         = fs.Int("top", defaultTopN, "Number of leaderboard rows to print")
		perGender    = fs.Int("per-gender", defaultPerGender, "Rows per gender group")
		exempt       = fs.String("exempt", "", "Comma-separated species that never double (default: built-in list)")
		format       = fs.String("format", "text", "Output format: text or json")
		verbose      = fs.Bool("verbose", false, "Log catalog diagnostics to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}

	log := logger.Nop()
	if *verbose {
		l, err := logger.New(stderr, logger.FormatText)
		if err != nil {
			return err
		}
		log = l
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store := repository.NewMemoryStore()
	if err := loadClaims(ctx, store, *claimsPath); err != nil {
		return err
	}
	if *profilesPath != "" {
		if err := loadProfiles(ctx, store, *profilesPath); err != nil {
			return err
		}
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithCatalog(repository.NewFileCatalog(*speciesPath, *bonusPath)),
		app.WithMaxLeaderboardLimit(*topN),
	}
	if *exempt != "" {
		opts = append(opts, app.WithExemptSlugs(strings.Split(*exempt, ",")))
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	rep, err := build(ctx, svc, *topN, *perGender)
	if err != nil {
		return err
	}
	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return render(stdout, rep)
}

func build(ctx context.Context, svc *app.Service, topN, perGender int) (report, error) {
	var (
		rep report
		err error
	)
	if rep.Top, err = svc.Leaderboard(ctx, topN); err != nil {
		return rep, err
	}
	if rep.Genders, err = svc.Groups(ctx, leaderboard.AttrGender, perGender); err != nil {
		return rep, err
	}
	if rep.Clubs, err = svc.Clubs(ctx); err != nil {
		return rep, err
	}
	if rep.Unresolved, err = svc.Unresolved(ctx); err != nil {
		return rep, err
	}
	return rep, nil
}

func loadClaims(ctx context.Context, store repository.Store, path string) error {
	var claims []model.Claim
	if err := readJSON(path, &claims); err != nil {
		return fmt.Errorf("claims: %w", err)
	}
	for _, c := range claims {
		// The store rejects these; aggregation would skip them anyway.
		if strings.TrimSpace(c.UserID) == "" {
			continue
		}
		if _, err := store.InsertClaim(ctx, c); err != nil {
			return fmt.Errorf("claims: %w", err)
		}
	}
	return nil
}

func loadProfiles(ctx context.Context, store repository.Store, path string) error {
	var profiles []model.Profile
	if err := readJSON(path, &profiles); err != nil {
		return fmt.Errorf("profiles: %w", err)
	}
	for _, p := range profiles {
		if err := store.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("profiles: %w", err)
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func render(w io.Writer, rep report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "LEADERBOARD")
	fmt.Fprintln(tw, "#\tDiver\tClub\tClaims\tScore")
	for _, e := range rep.Top {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", e.Rank, e.Name, e.Club, e.Claims, e.Score)
	}

	for _, g := range rep.Genders {
		fmt.Fprintf(tw, "\nTOP %s\n", strings.ToUpper(g.Key))
		for _, e := range g.Entries {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.Name, e.Score)
		}
	}

	fmt.Fprintln(tw, "\nCLUBS")
	fmt.Fprintln(tw, "Club\tDivers\tAverage")
	for _, c := range rep.Clubs {
		avg := fmt.Sprintf("needs %d more", c.Missing)
		if c.Average != nil {
			avg = fmt.Sprint(*c.Average)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Club, c.Count, avg)
	}

	if len(rep.Unresolved) > 0 {
		fmt.Fprintln(tw, "\nUNRESOLVED")
		for _, u := range rep.Unresolved {
			hint := ""
			if u.Suggestion != nil {
				hint = "did you mean " + u.Suggestion.Slug + "?"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", u.Identifier, u.Count, hint)
		}
	}
	return tw.Flush()
}
