// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/reputation"
)

// ReputationService is the part of reputation.Engine the API serves.
type ReputationService interface {
	Submit(ctx context.Context, ev reputation.Event) (*reputation.Transaction, error)
	Snapshot(ctx context.Context, playerID string, asOf time.Time) (*reputation.Snapshot, error)
	Transactions(ctx context.Context, playerID string, filter reputation.TransactionFilter) ([]reputation.Transaction, error)
	Counters(ctx context.Context, playerID string) (map[string]int64, error)
	MemberSince(ctx context.Context, playerID string) (time.Time, bool, error)
}

// DetectionService is the part of detection.Engine the API serves.
type DetectionService interface {
	RecordProposal(ctx context.Context, p detection.Proposal) error
	RecordVote(ctx context.Context, v detection.Vote) (detection.Vote, error)
	RecordTransfer(ctx context.Context, t detection.Transfer) (detection.Transfer, error)
	AnalyzeVoting(ctx context.Context, proposalID string) ([]detection.Flag, error)
	AnalyzeTransactions(ctx context.Context, start, end time.Time) ([]detection.Flag, error)
	ListFlags(ctx context.Context, filter detection.FlagFilter) ([]detection.Flag, error)
	LatestFlag(ctx context.Context, kind detection.SubjectKind, subjectID string) (detection.Flag, bool, error)
}

// RewardCalculator is the part of economy.Calculator the API serves.
type RewardCalculator interface {
	Calculate(ctx context.Context, req economy.Request) (*economy.Reward, error)
	Tiers() []economy.Tier
}

// BadgeService is the part of badges.Trigger the API serves.
type BadgeService interface {
	CheckEvolutions(ctx context.Context, playerID string) ([]badges.Unlock, error)
	Ranks(ctx context.Context, playerID string) ([]badges.State, error)
	History(ctx context.Context, playerID string, limit int) ([]badges.Unlock, error)
	Ladders() []badges.Ladder
}

// HealthChecker reports whether storage is usable. storage.DB implements it.
type HealthChecker interface {
	Ping() error
}

// Dependencies are the services a Handler is built from. All are required.
type Dependencies struct {
	Reputation ReputationService
	Detection  DetectionService
	Rewards    RewardCalculator
	Badges     BadgeService
	Health     HealthChecker

	// CheckBadgesOnEvent runs a badge check after every accepted event.
	CheckBadgesOnEvent bool
}

// Handler holds the HTTP handlers of the API.
type Handler struct {
	reputation         ReputationService
	detection          DetectionService
	rewards            RewardCalculator
	badges             BadgeService
	health             HealthChecker
	checkBadgesOnEvent bool
	startTime          time.Time
}

// NewHandler validates deps and creates a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Reputation == nil:
		return nil, errors.New("api: reputation service is required")
	case deps.Detection == nil:
		return nil, errors.New("api: detection service is required")
	case deps.Rewards == nil:
		return nil, errors.New("api: reward calculator is required")
	case deps.Badges == nil:
		return nil, errors.New("api: badge service is required")
	case deps.Health == nil:
		return nil, errors.New("api: health checker is required")
	}
	return &Handler{
		reputation:         deps.Reputation,
		detection:          deps.Detection,
		rewards:            deps.Rewards,
		badges:             deps.Badges,
		health:             deps.Health,
		checkBadgesOnEvent: deps.CheckBadgesOnEvent,
		startTime:          time.Now(),
	}, nil
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// queryTime parses an RFC 3339 query parameter. A missing parameter yields
// fallback.
func queryTime(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}

// queryLimit parses the limit parameter, defaulting and capping it.
func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, nil
}
