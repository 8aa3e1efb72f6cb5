// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package detection

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/validation"
)

// flagNamespace seeds deterministic flag IDs so that re-analyzing the same
// activity yields the same flag instead of a duplicate.
var flagNamespace = uuid.MustParse("6f1c7e0a-3b2d-5c4e-9a8f-2d1e0b7c6a51")

// Publisher emits flags to the flags feed.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// EngineConfig configures the detection engine.
type EngineConfig struct {
	Voting       VotingConfig      `json:"voting"`
	Transactions TransactionConfig `json:"transactions"`

	// VotingEnabled and TransactionsEnabled switch the detectors.
	VotingEnabled       bool `json:"voting_enabled"`
	TransactionsEnabled bool `json:"transactions_enabled"`

	// ScanInterval is the period of the scheduled scan.
	ScanInterval time.Duration `json:"scan_interval"`

	// ScanRate limits proposal analyses per second during a scan.
	ScanRate  float64 `json:"scan_rate"`
	ScanBurst int     `json:"scan_burst"`
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Voting:              DefaultVotingConfig(),
		Transactions:        DefaultTransactionConfig(),
		VotingEnabled:       true,
		TransactionsEnabled: true,
		ScanInterval:        5 * time.Minute,
		ScanRate:            50,
		ScanBurst:           10,
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for flag timestamps and scans.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithPublisher sets where new flags are published.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// Engine records detector inputs, runs the analyzers and persists the
// resulting flags. It only reads activity logs and never touches reputation.
type Engine struct {
	log       EventLog
	flags     FlagStore
	publisher Publisher

	voting       *VotingDetector
	transactions *TransactionDetector

	interval time.Duration
	limiter  *rate.Limiter
	now      func() time.Time

	mu       sync.Mutex
	lastScan time.Time
}

// NewEngine creates a detection engine.
func NewEngine(log EventLog, flags FlagStore, cfg EngineConfig, opts ...Option) (*Engine, error) {
	voting := NewVotingDetector()
	if err := voting.Configure(cfg.Voting); err != nil {
		return nil, fmt.Errorf("invalid voting config: %w", err)
	}
	voting.SetEnabled(cfg.VotingEnabled)

	transactions := NewTransactionDetector()
	if err := transactions.Configure(cfg.Transactions); err != nil {
		return nil, fmt.Errorf("invalid transaction config: %w", err)
	}
	transactions.SetEnabled(cfg.TransactionsEnabled)

	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = DefaultEngineConfig().ScanInterval
	}
	limit := rate.Inf
	if cfg.ScanRate > 0 {
		limit = rate.Limit(cfg.ScanRate)
	}
	if cfg.ScanBurst < 1 {
		cfg.ScanBurst = 1
	}

	e := &Engine{
		log:          log,
		flags:        flags,
		voting:       voting,
		transactions: transactions,
		interval:     cfg.ScanInterval,
		limiter:      rate.NewLimiter(limit, cfg.ScanBurst),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}

	logging.Info().
		Bool("voting", voting.Enabled()).
		Bool("transactions", transactions.Enabled()).
		Dur("scan_interval", e.interval).
		Msg("detection engine configured")
	return e, nil
}

// Voting returns the voting detector.
func (e *Engine) Voting() *VotingDetector {
	return e.voting
}

// Transactions returns the transaction detector.
func (e *Engine) Transactions() *TransactionDetector {
	return e.transactions
}

// RecordProposal stores a proposal so its votes can be analyzed. A
// proposal's window is fixed once recorded; redefining it returns
// ErrProposalExists.
func (e *Engine) RecordProposal(ctx context.Context, p Proposal) error {
	if verr := validation.ValidateStruct(&p); verr != nil {
		return &InputError{Fields: verr}
	}
	if !p.ClosesAt.IsZero() && p.ClosesAt.Before(p.CreatedAt) {
		return &InputError{Reason: "closes_at must not precede created_at"}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if !p.ClosesAt.IsZero() {
		p.ClosesAt = p.ClosesAt.UTC()
	}
	return e.log.SaveProposal(ctx, p)
}

// RecordVote appends a vote. The proposal must already be recorded.
func (e *Engine) RecordVote(ctx context.Context, v Vote) (Vote, error) {
	if verr := validation.ValidateStruct(&v); verr != nil {
		return Vote{}, &InputError{Fields: verr}
	}
	_, found, err := e.log.GetProposal(ctx, v.ProposalID)
	if err != nil {
		return Vote{}, err
	}
	if !found {
		return Vote{}, fmt.Errorf("%w: %q", ErrProposalNotFound, v.ProposalID)
	}
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	v.CastAt = v.CastAt.UTC()
	v.RecordedAt = e.now()
	if err := e.log.AppendVote(ctx, v); err != nil {
		return Vote{}, err
	}
	return v, nil
}

// RecordTransfer appends a transfer.
func (e *Engine) RecordTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	if verr := validation.ValidateStruct(&t); verr != nil {
		return Transfer{}, &InputError{Fields: verr}
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.OccurredAt = t.OccurredAt.UTC()
	if err := e.log.AppendTransfer(ctx, t); err != nil {
		return Transfer{}, err
	}
	return t, nil
}

// AnalyzeVoting analyzes the votes cast on a proposal within its active
// window. It returns at most one flag.
func (e *Engine) AnalyzeVoting(ctx context.Context, proposalID string) ([]Flag, error) {
	if !e.voting.Enabled() {
		return nil, nil
	}
	start := time.Now()

	flags, err := e.analyzeVoting(ctx, proposalID)
	metrics.RecordDetectionAnalysis(string(DetectorVoting), len(flags) > 0, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, flags)
}

func (e *Engine) analyzeVoting(ctx context.Context, proposalID string) ([]Flag, error) {
	p, found, err := e.log.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrProposalNotFound, proposalID)
	}
	votes, err := e.log.Votes(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	stats, ok := e.voting.Measure(p, votes)
	if !ok {
		return nil, nil
	}
	category, score, flagged := e.voting.Verdict(stats)
	if !flagged {
		return nil, nil
	}

	evidence, err := json.Marshal(VotingEvidence{
		TotalVotes:       stats.Total,
		DistinctVoters:   stats.Distinct,
		RapidVoteRatio:   stats.RapidRatio,
		UniqueVoterRatio: stats.UniqueRatio,
		AvgLatencySecs:   stats.AvgLatencySecs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode voting evidence: %w", err)
	}

	return []Flag{{
		ID:          flagID("voting", p.ID, strconv.Itoa(stats.Total), stats.LastVoteAt.Format(time.RFC3339Nano)),
		SubjectKind: SubjectProposal,
		SubjectID:   p.ID,
		Category:    category,
		Score:       score,
		WindowStart: p.CreatedAt,
		WindowEnd:   stats.LastVoteAt,
		Evidence:    evidence,
		CreatedAt:   e.now(),
	}}, nil
}

// AnalyzeTransactions analyzes the transfers that occurred in [start, end).
// Outlier means also look back before start.
func (e *Engine) AnalyzeTransactions(ctx context.Context, start, end time.Time) ([]Flag, error) {
	if !e.transactions.Enabled() {
		return nil, nil
	}
	if !end.After(start) {
		return nil, &InputError{Reason: "end must be after start"}
	}
	return e.transactionFlags(ctx, start, end, 0)
}

// transactionFlags runs both transaction analyses and persists the result.
// Cluster windows may begin up to clusterLookback before start but must
// hold a transfer from [start, end).
func (e *Engine) transactionFlags(ctx context.Context, start, end time.Time, clusterLookback time.Duration) ([]Flag, error) {
	began := time.Now()

	flags, err := e.analyzeTransactions(ctx, start, end, clusterLookback)
	metrics.RecordDetectionAnalysis(string(DetectorTransactions), len(flags) > 0, time.Since(began), err)
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, flags)
}

func (e *Engine) analyzeTransactions(ctx context.Context, start, end time.Time, clusterLookback time.Duration) ([]Flag, error) {
	cfg := e.transactions.Config()

	clusterFrom := start.Add(-clusterLookback)
	from := start.Add(-cfg.OutlierLookback)
	if clusterFrom.Before(from) {
		from = clusterFrom
	}
	history, err := e.log.Transfers(ctx, from, end)
	if err != nil {
		return nil, err
	}
	var inRange, clusterInput []Transfer
	for _, t := range history {
		if !t.OccurredAt.Before(clusterFrom) {
			clusterInput = append(clusterInput, t)
		}
		if !t.OccurredAt.Before(start) {
			inRange = append(inRange, t)
		}
	}
	if len(inRange) == 0 {
		return nil, nil
	}

	now := e.now()
	var flags []Flag

	for _, c := range e.transactions.Clusters(clusterInput) {
		first, last := c.Transfers[0], c.Transfers[len(c.Transfers)-1]
		if last.OccurredAt.Before(start) {
			// Nothing new in this window; an earlier run already saw it.
			continue
		}
		evidence, err := json.Marshal(c.Evidence)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cluster evidence: %w", err)
		}
		// Keyed by the anchoring transfer so a window that keeps growing
		// across scans stays one flag.
		flags = append(flags, Flag{
			ID:          flagID("cluster", first.ID),
			SubjectKind: SubjectCluster,
			SubjectID:   strings.Join(c.Evidence.Participants, "+"),
			Category:    CategoryCoordinatedTransactionCluster,
			Score:       c.Score,
			WindowStart: c.Start,
			WindowEnd:   c.End,
			Evidence:    evidence,
			CreatedAt:   now,
		})
	}

	for _, o := range e.transactions.Outliers(inRange, history) {
		evidence, err := json.Marshal(o.Evidence)
		if err != nil {
			return nil, fmt.Errorf("failed to encode outlier evidence: %w", err)
		}
		kind, subject := SubjectPlayer, o.Transfer.From
		if o.Transfer.ListingID != "" {
			kind, subject = SubjectListing, o.Transfer.ListingID
		}
		flags = append(flags, Flag{
			ID:          flagID("outlier", o.Transfer.ID),
			SubjectKind: kind,
			SubjectID:   subject,
			Category:    CategoryLargeTransactionOutlier,
			Score:       o.Score,
			WindowStart: o.Transfer.OccurredAt.Add(-cfg.OutlierLookback),
			WindowEnd:   o.Transfer.OccurredAt,
			Evidence:    evidence,
			CreatedAt:   now,
		})
	}
	return flags, nil
}

// persist stores new flags and publishes them. Flags that already exist are
// returned but not published again.
func (e *Engine) persist(ctx context.Context, flags []Flag) ([]Flag, error) {
	out := make([]Flag, 0, len(flags))
	for _, f := range flags {
		created, err := e.flags.SaveFlag(ctx, f)
		if err != nil {
			return out, err
		}
		out = append(out, f)
		if !created {
			continue
		}

		metrics.RecordDetectionFlag(string(f.Category))
		logging.Ctx(ctx).Info().
			Str("flag_id", f.ID).
			Str("category", string(f.Category)).
			Str("subject_kind", string(f.SubjectKind)).
			Str("subject_id", f.SubjectID).
			Float64("score", f.Score).
			Msg("manipulation flag raised")

		if e.publisher == nil {
			continue
		}
		if err := e.publisher.PublishJSON(ctx, FlagsTopic, f.ID, f); err != nil {
			// Flags are advisory and already stored.
			logging.Ctx(ctx).Warn().Err(err).Str("flag_id", f.ID).Msg("failed to publish flag")
		}
	}
	return out, nil
}

// ListFlags returns stored flags, newest first.
func (e *Engine) ListFlags(ctx context.Context, filter FlagFilter) ([]Flag, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, &InputError{Reason: fmt.Sprintf("unknown category %q", filter.Category)}
	}
	if filter.SubjectKind != "" && !filter.SubjectKind.Valid() {
		return nil, &InputError{Reason: fmt.Sprintf("unknown subject kind %q", filter.SubjectKind)}
	}
	return e.flags.ListFlags(ctx, filter)
}

// LatestFlag returns the current flag for a subject.
func (e *Engine) LatestFlag(ctx context.Context, kind SubjectKind, subjectID string) (Flag, bool, error) {
	if !kind.Valid() {
		return Flag{}, false, &InputError{Reason: fmt.Sprintf("unknown subject kind %q", kind)}
	}
	return e.flags.LatestFlag(ctx, kind, subjectID)
}

// ScanResult summarizes one scheduled scan.
type ScanResult struct {
	Start     time.Time
	End       time.Time
	Proposals int
	Flags     []Flag
}

// Scan analyzes every proposal with votes recorded since the previous scan
// and the transfers of the same period. Cluster windows reach back one
// cluster window before the period, so a burst spread over several scans
// is still seen whole. The first scan covers one interval.
func (e *Engine) Scan(ctx context.Context) (*ScanResult, error) {
	began := time.Now()
	defer func() { metrics.RecordDetectionScan(time.Since(began)) }()

	e.mu.Lock()
	end := e.now()
	start := e.lastScan
	if start.IsZero() {
		start = end.Add(-e.interval)
	}
	e.mu.Unlock()

	res := &ScanResult{Start: start, End: end}

	if e.voting.Enabled() {
		ids, err := e.log.VotedProposals(ctx, start, end)
		if err != nil {
			return nil, err
		}
		sort.Strings(ids)
		for _, id := range ids {
			if err := e.limiter.Wait(ctx); err != nil {
				return res, err
			}
			flags, err := e.AnalyzeVoting(ctx, id)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("proposal_id", id).Msg("voting analysis failed")
				continue
			}
			res.Proposals++
			res.Flags = append(res.Flags, flags...)
		}
	}

	if e.transactions.Enabled() {
		flags, err := e.transactionFlags(ctx, start, end, e.transactions.Config().ClusterWindow)
		if err != nil {
			return res, err
		}
		res.Flags = append(res.Flags, flags...)
	}

	e.mu.Lock()
	e.lastScan = end
	e.mu.Unlock()

	logging.Ctx(ctx).Debug().
		Time("start", start).
		Time("end", end).
		Int("proposals", res.Proposals).
		Int("flags", len(res.Flags)).
		Msg("detection scan complete")
	return res, nil
}

// RunWithContext runs Scan every interval until ctx is done.
func (e *Engine) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Scan(ctx); err != nil && ctx.Err() == nil {
				logging.Warn().Err(err).Msg("detection scan failed")
			}
		}
	}
}

func flagID(parts ...string) string {
	return uuid.NewSHA1(flagNamespace, []byte(strings.Join(parts, "|"))).String()
}
