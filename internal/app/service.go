// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
	"github.com/remoterob/fish-bingo/internal/domain/bonus"
	"github.com/remoterob/fish-bingo/internal/domain/catalog"
	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/scoring"
	"github.com/remoterob/fish-bingo/internal/domain/slug"
	"github.com/remoterob/fish-bingo/internal/domain/types"
	"github.com/remoterob/fish-bingo/pkg/logger"
	"github.com/remoterob/fish-bingo/pkg/metrics"
)

// DefaultMaxLeaderboardLimit caps GET /leaderboard when no option is given.
const DefaultMaxLeaderboardLimit = 100

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	catalog repository.CatalogSource

	// Configuration
	exemptSlugs []string // nil means scoring.DefaultExemptSlugs
	maxLimit    int
	maxDepth    int

	// Index cache, keyed by the catalog fingerprint.
	scorer      *scoring.Scorer
	fingerprint uint64
	failed      uint64 // fingerprint of the last snapshot that did not build
	hasFailed   bool
	builtAt     time.Time

	now     func() time.Time
	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the claim and profile store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog sets where species and bonus catalogs are read from.
func WithCatalog(source repository.CatalogSource) Option {
	return func(s *Service) {
		if source != nil {
			s.catalog = source
		}
	}
}

// WithExemptSlugs replaces the species that never take the first-time
// multiplier. A nil slice keeps the defaults; an empty one exempts nothing.
func WithExemptSlugs(slugs []string) Option {
	return func(s *Service) {
		if slugs != nil {
			s.exemptSlugs = slices.Clone(slugs)
		}
	}
}

// WithMaxLeaderboardLimit caps how many rows Leaderboard returns.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithClock overrides the time source used for the current month and build times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCatalogMaxDepth bounds catalog nesting.
func WithCatalogMaxDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxLimit: DefaultMaxLeaderboardLimit,
		maxDepth: catalog.DefaultMaxDepth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// MaxLeaderboardLimit reports the configured row cap.
func (s *Service) MaxLeaderboardLimit() int { return s.maxLimit }

// Start builds the catalog index. It fails when the catalog cannot be read
// or does not build.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.catalog == nil {
		return ErrNoCatalog
	}

	s.logger.Info(ctx, "starting fish bingo service...")
	snap, err := s.catalog.Read(ctx)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	if _, err := s.installLocked(ctx, snap); err != nil {
		return err
	}

	s.started = true
	d := s.scorer.Index().Diagnostics()
	s.logger.Info(ctx, "fish bingo service started",
		logger.Int("species", d.SpeciesEntries),
		logger.Int("bonuses", d.BonusEntries),
		logger.Int("maxLeaderboardLimit", s.maxLimit),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping fish bingo service...")
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "fish bingo service stopped")
}

// currentScorer returns a scorer over the latest catalog, rebuilding the
// index when the catalog fingerprint has moved. A catalog that cannot be
// read or built leaves the previous index in service.
func (s *Service) currentScorer(ctx context.Context) (*scoring.Scorer, error) {
	s.mu.RLock()
	started, source, cached := s.started, s.catalog, s.scorer
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	snap, err := source.Read(ctx)
	if err != nil {
		s.logger.Warn(ctx, "catalog read failed, serving cached index", logger.Error(err))
		return cached, nil
	}

	s.mu.RLock()
	fresh := snap.Fingerprint == s.fingerprint || (s.hasFailed && snap.Fingerprint == s.failed)
	cached = s.scorer
	s.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	scorer, err := s.installLocked(ctx, snap)
	if err != nil {
		s.failed, s.hasFailed = snap.Fingerprint, true
		s.logger.Error(ctx, "catalog rebuild failed, serving cached index", logger.Error(err))
		return s.scorer, nil
	}
	return scorer, nil
}

// installLocked builds and caches the index for snap. Callers hold s.mu.
func (s *Service) installLocked(ctx context.Context, snap repository.CatalogSnapshot) (*scoring.Scorer, error) {
	if s.scorer != nil && snap.Fingerprint == s.fingerprint {
		return s.scorer, nil
	}

	bonusJSON := snap.BonusJSON
	if len(bytes.TrimSpace(bonusJSON)) == 0 {
		bonusJSON = []byte("[]")
	}

	start := time.Now()
	index, err := catalog.BuildJSON(snap.SpeciesJSON, bonusJSON, catalog.WithMaxDepth(s.maxDepth))
	metrics.RecordIndexBuild(err == nil, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogBuild, err)
	}

	var opts []scoring.Option
	if s.exemptSlugs != nil {
		opts = append(opts, scoring.WithExemptSlugs(s.exemptSlugs...))
	}
	s.scorer = scoring.New(index, opts...)
	s.fingerprint = snap.Fingerprint
	s.hasFailed = false
	s.builtAt = s.now()

	d := index.Diagnostics()
	metrics.UpdateCatalogStats(d.SpeciesEntries, d.BonusEntries, d.SpeciesCollisions, d.BonusCollisions, d.SkippedSpecies)
	s.logger.Info(ctx, "catalog index built",
		logger.String("fingerprint", strconv.FormatUint(snap.Fingerprint, 16)),
		logger.Int("species", d.SpeciesEntries),
		logger.Int("bonuses", d.BonusEntries),
		logger.Duration("took", time.Since(start)),
	)
	if d.SpeciesCollisions > 0 || d.BonusCollisions > 0 || d.SkippedSpecies > 0 {
		s.logger.Warn(ctx, "catalog has shadowed or skipped entries",
			logger.Int("speciesCollisions", d.SpeciesCollisions),
			logger.Int("bonusCollisions", d.BonusCollisions),
			logger.Int("skippedSpecies", d.SkippedSpecies),
		)
	}
	return s.scorer, nil
}

// snapshot is one consistent scoring pass over the store.
type snapshot struct {
	scorer *scoring.Scorer
	scored []model.ScoredClaim
	result leaderboard.Result
}

func (s *Service) aggregate(ctx context.Context) (snapshot, error) {
	scorer, err := s.currentScorer(ctx)
	if err != nil {
		return snapshot{}, err
	}
	claims, err := s.store.Claims(ctx)
	if err != nil {
		return snapshot{}, fmt.Errorf("load claims: %w", err)
	}
	profiles, err := s.store.Profiles(ctx)
	if err != nil {
		return snapshot{}, fmt.Errorf("load profiles: %w", err)
	}

	start := time.Now()
	scored := scorer.ScoreAll(claims)
	result := leaderboard.AggregateScored(scored, leaderboard.NewProfileMap(profiles))
	metrics.RecordAggregationLatency(float64(time.Since(start).Microseconds()) / 1000)

	recordScored(scored)
	metrics.UpdateLeaderboardSize(len(result.Rows))
	if result.Skipped > 0 {
		metrics.RecordClaimsSkipped(result.Skipped)
		s.logger.Debug(ctx, "skipped claims without a user id", logger.Int("skipped", result.Skipped))
	}
	return snapshot{scorer: scorer, scored: scored, result: result}, nil
}

func recordScored(scored []model.ScoredClaim) {
	var counts [3]int
	for _, sc := range scored {
		counts[sc.Resolution.Kind]++
	}
	for kind, n := range counts {
		if n > 0 {
			metrics.RecordClaimsScored(model.ResolutionKind(kind).String(), n)
		}
	}
}

// Leaderboard returns the top limit ranked rows. A non-positive limit, or
// one above the configured cap, returns the cap.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	snap, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	return types.Ranked(leaderboard.Top(snap.result.Rows, limit)), nil
}

// Groups partitions the leaderboard by attr. Each group keeps at most
// perGroup rows; a non-positive perGroup keeps them all.
func (s *Service) Groups(ctx context.Context, attr leaderboard.Attribute, perGroup int) ([]types.Group, error) {
	snap, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	groups := leaderboard.GroupBy(snap.result.Rows, attr)
	if perGroup > 0 {
		groups = leaderboard.TopPerGroup(groups, perGroup)
	}
	keys := leaderboard.SortedKeys(groups)
	out := make([]types.Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Group{Key: k, Entries: types.Ranked(groups[k])})
	}
	return out, nil
}

// Clubs returns the club table.
func (s *Service) Clubs(ctx context.Context) ([]model.ClubSummary, error) {
	snap, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return leaderboard.RankClubs(snap.result.Rows), nil
}

// Diver returns a participant's rank and claim breakdown.
func (s *Service) Diver(ctx context.Context, userID string) (types.Diver, error) {
	snap, err := s.aggregate(ctx)
	if err != nil {
		return types.Diver{}, err
	}
	uid := strings.TrimSpace(userID)
	rank, ok := leaderboard.RankOf(snap.result.Rows, uid)
	if !ok {
		return types.Diver{}, fmt.Errorf("%w: %q", ErrUnknownDiver, uid)
	}
	return types.Diver{
		Entry: types.Entry{Rank: rank, LeaderboardRow: snap.result.Rows[rank-1]},
		Card:  leaderboard.Breakdown(uid, snap.scored),
	}, nil
}

// CurrentMonth asks Bonuses for the monthly rows of the service clock's month.
const CurrentMonth = -1

// Bonuses reports userID's progress. Month 0 covers every bonus; 1-12 or
// CurrentMonth narrows it to that month's rows.
func (s *Service) Bonuses(ctx context.Context, userID string, month int) (types.DiverBonuses, error) {
	if month == CurrentMonth {
		month = int(s.now().Month())
	}
	if month < 0 || month > 12 {
		return types.DiverBonuses{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	snap, err := s.aggregate(ctx)
	if err != nil {
		return types.DiverBonuses{}, err
	}
	uid := strings.TrimSpace(userID)
	if _, ok := leaderboard.RankOf(snap.result.Rows, uid); !ok {
		return types.DiverBonuses{}, fmt.Errorf("%w: %q", ErrUnknownDiver, uid)
	}
	card := leaderboard.Breakdown(uid, snap.scored)
	claimed := bonus.ClaimedSlugs(slices.Concat(card.Catches, card.Bonuses))
	index := snap.scorer.Index()
	out := types.DiverBonuses{UserID: uid, Month: month}
	if month == 0 {
		out.Bonuses = bonus.ResolveAll(index, claimed)
	} else {
		out.Bonuses = bonus.ResolveEntries(index.Bonuses().ForMonth(month), claimed, index.Species())
	}
	return out, nil
}

// ScoreClaim scores c against the current catalog without storing it.
func (s *Service) ScoreClaim(ctx context.Context, c model.Claim) (model.ScoredClaim, error) {
	scorer, err := s.currentScorer(ctx)
	if err != nil {
		return model.ScoredClaim{}, err
	}
	sc := scorer.Score(c)
	recordScored([]model.ScoredClaim{sc})
	return sc, nil
}

// SubmitClaim stores c and returns it scored. Bonus claims are never stored
// as first-time catches.
func (s *Service) SubmitClaim(ctx context.Context, c model.Claim) (model.ScoredClaim, error) {
	scorer, err := s.currentScorer(ctx)
	if err != nil {
		return model.ScoredClaim{}, err
	}
	if slug.HasBonusPrefix(c.Identifier) {
		c.FirstTime = false
	} else if res, _ := scorer.Resolve(c.Identifier); res.Kind == model.BonusResolution {
		c.FirstTime = false
	}

	stored, err := s.store.InsertClaim(ctx, c)
	if err != nil {
		return model.ScoredClaim{}, err
	}
	metrics.RecordClaimStored()
	sc := scorer.Score(stored)
	recordScored([]model.ScoredClaim{sc})
	s.logger.Debug(ctx, "claim stored",
		logger.String("id", stored.ID),
		logger.String("userID", stored.UserID),
		logger.String("identifier", stored.Identifier),
		logger.String("resolution", sc.Resolution.Kind.String()),
		logger.Int("points", sc.Points),
	)
	return sc, nil
}

// UpsertProfile creates or replaces a diver profile.
func (s *Service) UpsertProfile(ctx context.Context, p model.Profile) error {
	return s.store.UpsertProfile(ctx, p)
}

// Unresolved lists identifiers that matched no catalog entry, most frequent
// first, each with the species it most likely meant.
func (s *Service) Unresolved(ctx context.Context) ([]types.Unresolved, error) {
	snap, err := s.aggregate(ctx)
	if err != nil {
		return nil, err
	}

	type tally struct {
		out   types.Unresolved
		users map[string]struct{}
	}
	var (
		order   []string
		tallies = make(map[string]*tally)
	)
	for _, sc := range snap.scored {
		if sc.Resolution.Resolved() {
			continue
		}
		key := slug.Normalize(sc.Claim.Identifier)
		t, ok := tallies[key]
		if !ok {
			t = &tally{
				out:   types.Unresolved{Identifier: strings.TrimSpace(sc.Claim.Identifier)},
				users: make(map[string]struct{}),
			}
			if e, ok := snap.scorer.Index().Species().Suggest(sc.Claim.Identifier); ok {
				t.out.Suggestion = &types.Suggestion{Slug: e.Slug, Name: e.Name}
			}
			tallies[key] = t
			order = append(order, key)
		}
		t.out.Count++
		if uid := strings.TrimSpace(sc.Claim.UserID); uid != "" {
			t.users[uid] = struct{}{}
		}
	}

	out := make([]types.Unresolved, 0, len(order))
	for _, key := range order {
		t := tallies[key]
		t.out.Users = len(t.users)
		out = append(out, t.out)
	}
	slices.SortStableFunc(out, func(a, b types.Unresolved) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":             s.started,
		"maxLeaderboardLimit": s.maxLimit,
		"catalogMaxDepth":     s.maxDepth,
	}
	if s.scorer != nil {
		stats["catalog"] = s.scorer.Index().Diagnostics()
		stats["catalogFingerprint"] = strconv.FormatUint(s.fingerprint, 16)
		stats["catalogBuiltAt"] = s.builtAt.UTC().Format(time.RFC3339)
	}
	return stats
}
