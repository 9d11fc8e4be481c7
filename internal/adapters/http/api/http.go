// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	DiverDependencies
	ClaimDependencies
	AuditDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]Entry, error)
	Groups(ctx context.Context, attr leaderboard.Attribute, perGroup int) ([]types.Group, error)
	Clubs(ctx context.Context) ([]model.ClubSummary, error)
}

// DiverDependencies defines the interface for per-diver reads.
type DiverDependencies interface {
	Diver(ctx context.Context, userID string) (types.Diver, error)
	Bonuses(ctx context.Context, userID string, month int) (types.DiverBonuses, error)
}

// ClaimDependencies defines the interface for claim scoring and intake.
type ClaimDependencies interface {
	ScoreClaim(ctx context.Context, c model.Claim) (model.ScoredClaim, error)
	SubmitClaim(ctx context.Context, c model.Claim) (model.ScoredClaim, error)
}

// AuditDependencies defines the interface for catalog data-quality reports.
type AuditDependencies interface {
	Unresolved(ctx context.Context) ([]types.Unresolved, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	diverHandler       *DiverHandler
	claimsHandler      *ClaimsHandler
	auditHandler       *AuditHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		diverHandler:       NewDiverHandler(deps),
		claimsHandler:      NewClaimsHandler(deps),
		auditHandler:       NewAuditHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/leaderboard/groups", MetricsMiddleware(s.leaderboardHandler.HandleGetGroups, "leaderboard_groups"))
	mux.HandleFunc("/clubs", MetricsMiddleware(s.leaderboardHandler.HandleGetClubs, "clubs"))
	mux.HandleFunc("/divers/", MetricsMiddleware(s.diverHandler.HandleGetDiver, "divers"))
	mux.HandleFunc("/claims", MetricsMiddleware(s.claimsHandler.HandlePostClaim, "claims"))
	mux.HandleFunc("/claims/score", MetricsMiddleware(s.claimsHandler.HandleScoreClaim, "claims_score"))
	mux.HandleFunc("/audit/unresolved", MetricsMiddleware(s.auditHandler.HandleGetUnresolved, "audit_unresolved"))
}
