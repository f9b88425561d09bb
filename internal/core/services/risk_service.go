package services

import (
	"context"
	"fmt"
	"math"

	"github.com/finsentry/aml_backend/internal/apperrors"
	"github.com/finsentry/aml_backend/internal/core/domain"
	"github.com/finsentry/aml_backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

// RiskConfig holds the weights and normalizers of the blended risk score and
// the thresholds of the pattern detectors. All weights must sum to 1.
type RiskConfig struct {
	BaseWeight        float64
	NeighborWeight    float64
	VolumeWeight      float64
	HighValueWeight   float64
	StructuringWeight float64

	VolumeNorm      float64 // incident tx count at which volume risk saturates
	HighValueNorm   float64 // amount at which high-value risk saturates
	StructuringNorm float64 // banded tx count at which structuring risk saturates

	BandLow  decimal.Decimal // reporting-threshold band, inclusive
	BandHigh decimal.Decimal

	SmurfingMinCount    int             // small incoming txs needed to flag smurfing
	SmurfingMaxAmount   decimal.Decimal // "small" cutoff, exclusive
	StructuringMinCount int             // banded txs needed to flag structuring
	VelocityMinCount    int             // incident txs needed to flag high velocity
	CircularMaxDepth    int             // hop cutoff for the focal cycle check

	LargeAmount       decimal.Decimal // suspicious-transaction size cutoff, exclusive
	HighRiskScore     float64         // blended score above which high_risk factor fires
	NewAccountDays    int             // account age below which new_account factor fires
	MaxSuspiciousTxns int

	SubgraphDepth int // hop depth of the neighborhood fed to the scorer
}

// DefaultRiskConfig returns the standard scoring parameters.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		BaseWeight:        0.30,
		NeighborWeight:    0.25,
		VolumeWeight:      0.15,
		HighValueWeight:   0.15,
		StructuringWeight: 0.15,

		VolumeNorm:      20,
		HighValueNorm:   100000,
		StructuringNorm: 3,

		BandLow:  decimal.NewFromInt(9000),
		BandHigh: decimal.NewFromInt(9999),

		SmurfingMinCount:    5,
		SmurfingMaxAmount:   decimal.NewFromInt(3000),
		StructuringMinCount: 2,
		VelocityMinCount:    10,
		CircularMaxDepth:    5,

		LargeAmount:       decimal.NewFromInt(50000),
		HighRiskScore:     0.7,
		NewAccountDays:    90,
		MaxSuspiciousTxns: 10,

		SubgraphDepth: 2,
	}
}

// patternHits records which laundering patterns fired for the focal account.
type patternHits struct {
	smurfing         bool
	smurfingCount    int
	structuring      bool
	structuringCount int
	circularFlow     bool
	highVelocity     bool
	velocityCount    int
}

// RiskService blends stored account risk with network signals from the
// account's transaction neighborhood.
type RiskService struct {
	BaseService
	repo     ports.LedgerRepository
	subgraph *SubgraphService
	cfg      RiskConfig
}

// NewRiskService creates a new RiskService.
func NewRiskService(repo ports.LedgerRepository, subgraph *SubgraphService, cfg RiskConfig) *RiskService {
	return &RiskService{repo: repo, subgraph: subgraph, cfg: cfg}
}

// ScoreAccountRisk produces the full risk assessment for one account. The
// same ledger state always yields the same assessment.
func (s *RiskService) ScoreAccountRisk(ctx context.Context, accountID string) (*domain.RiskAssessment, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Account lookup for scoring failed", "accountID", accountID)
		return nil, fmt.Errorf("finding account %s: %w", accountID, err)
	}

	sub, err := s.subgraph.ExtractSubgraph(ctx, accountID, s.cfg.SubgraphDepth)
	if err != nil {
		return nil, fmt.Errorf("extracting scoring neighborhood: %w", err)
	}

	incident := incidentEdges(sub.Links, accountID)
	score := s.blendScore(account, sub, incident)
	patterns := s.detectPatterns(accountID, sub, incident)
	factors := s.contributingFactors(account, patterns, score)
	suspicious := s.suspiciousTransactions(incident)

	scoredNodes := make([]domain.ScoredNode, 0, len(sub.Nodes))
	for _, node := range sub.Nodes {
		scoredNodes = append(scoredNodes, domain.ScoredNode{
			Account:            node,
			PredictedRiskScore: s.nodeRisk(node, sub.Links),
		})
	}

	assessment := &domain.RiskAssessment{
		AccountID:              accountID,
		RiskProbability:        math.Round(score*10000) / 10000,
		RiskLevel:              riskLevel(score),
		PrimaryFlag:            primaryFlag(patterns),
		ContributingFactors:    factors,
		SuspiciousTransactions: suspicious,
		Subgraph:               domain.AnnotatedSubgraph{Nodes: scoredNodes, Links: sub.Links},
	}

	s.LogInfo(ctx, "Account scored", "accountID", accountID, "riskProbability", assessment.RiskProbability, "riskLevel", assessment.RiskLevel)
	return assessment, nil
}

// blendScore combines the five weighted risk factors, each clamped to [0,1].
func (s *RiskService) blendScore(account *domain.Account, sub *domain.Subgraph, incident []domain.TransactionEdge) float64 {
	baseRisk := account.RiskScore

	neighborRisk := 0.5
	if len(sub.Nodes) > 1 {
		sum := 0.0
		count := 0
		for _, node := range sub.Nodes {
			if node.AccountID != account.AccountID {
				sum += node.RiskScore
				count++
			}
		}
		neighborRisk = sum / float64(count)
	}

	volumeRisk := math.Min(float64(len(incident))/s.cfg.VolumeNorm, 1.0)

	maxAmount := 0.0
	structuringCount := 0
	for _, edge := range incident {
		amt := edge.Amount.InexactFloat64()
		if amt > maxAmount {
			maxAmount = amt
		}
		if s.inBand(edge.Amount) {
			structuringCount++
		}
	}
	highValueRisk := math.Min(maxAmount/s.cfg.HighValueNorm, 1.0)
	structuringRisk := math.Min(float64(structuringCount)/s.cfg.StructuringNorm, 1.0)

	combined := baseRisk*s.cfg.BaseWeight +
		neighborRisk*s.cfg.NeighborWeight +
		volumeRisk*s.cfg.VolumeWeight +
		highValueRisk*s.cfg.HighValueWeight +
		structuringRisk*s.cfg.StructuringWeight

	return math.Min(math.Max(combined, 0.0), 1.0)
}

// nodeRisk is the per-node annotation: stored risk bumped by incident volume,
// with the bump capped at 0.3.
func (s *RiskService) nodeRisk(node domain.Account, links []domain.TransactionEdge) float64 {
	incident := 0
	for _, edge := range links {
		if edge.SourceAccountID == node.AccountID || edge.TargetAccountID == node.AccountID {
			incident++
		}
	}
	bump := math.Min(float64(incident)/10.0, 0.3)
	return math.Min(node.RiskScore+bump, 1.0)
}

func (s *RiskService) detectPatterns(accountID string, sub *domain.Subgraph, incident []domain.TransactionEdge) patternHits {
	var hits patternHits

	smallIncoming := 0
	for _, edge := range incident {
		if edge.TargetAccountID == accountID && edge.Amount.LessThan(s.cfg.SmurfingMaxAmount) {
			smallIncoming++
		}
	}
	if smallIncoming >= s.cfg.SmurfingMinCount {
		hits.smurfing = true
		hits.smurfingCount = smallIncoming
	}

	banded := 0
	for _, edge := range incident {
		if s.inBand(edge.Amount) {
			banded++
		}
	}
	if banded >= s.cfg.StructuringMinCount {
		hits.structuring = true
		hits.structuringCount = banded
	}

	if len(incident) >= s.cfg.VelocityMinCount {
		hits.highVelocity = true
		hits.velocityCount = len(incident)
	}

	hits.circularFlow = s.hasCycleFrom(accountID, sub.Links)
	return hits
}

// hasCycleFrom reports whether a directed path within the subgraph leads from
// the focal account back to itself within the hop cutoff. The walk is
// iterative with an explicit stack.
func (s *RiskService) hasCycleFrom(accountID string, links []domain.TransactionEdge) bool {
	adjacency := make(map[string][]string)
	for _, edge := range links {
		adjacency[edge.SourceAccountID] = append(adjacency[edge.SourceAccountID], edge.TargetAccountID)
	}

	type walkFrame struct {
		node  string
		depth int
		path  map[string]bool
	}

	stack := []walkFrame{{node: accountID, depth: 0, path: map[string]bool{}}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Every move out of this frame lands at depth+1; the closing hop
		// back to the focal account counts against the cutoff too.
		if frame.depth >= s.cfg.CircularMaxDepth {
			continue
		}
		for _, next := range adjacency[frame.node] {
			if next == accountID && frame.depth > 0 {
				return true
			}
			if frame.path[next] {
				continue
			}
			branch := make(map[string]bool, len(frame.path)+1)
			for id := range frame.path {
				branch[id] = true
			}
			branch[next] = true
			stack = append(stack, walkFrame{node: next, depth: frame.depth + 1, path: branch})
		}
	}
	return false
}

func (s *RiskService) contributingFactors(account *domain.Account, hits patternHits, score float64) []domain.ContributingFactor {
	factors := make([]domain.ContributingFactor, 0, 6)

	if score > s.cfg.HighRiskScore {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "high_risk",
			Description: "Overall risk score exceeds threshold",
			Severity:    "high",
		})
	}
	if hits.smurfing {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "smurfing",
			Description: fmt.Sprintf("Smurfing pattern: %d small deposits", hits.smurfingCount),
			Severity:    "high",
		})
	}
	if hits.structuring {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "structuring",
			Description: fmt.Sprintf("Structuring: %d transactions near $10,000", hits.structuringCount),
			Severity:    "high",
		})
	}
	if hits.circularFlow {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "circular_flow",
			Description: "Circular transaction flow detected",
			Severity:    "critical",
		})
	}
	if hits.highVelocity {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "high_velocity",
			Description: fmt.Sprintf("High transaction velocity: %d transactions", hits.velocityCount),
			Severity:    "medium",
		})
	}
	if account.AccountAgeDays < s.cfg.NewAccountDays {
		factors = append(factors, domain.ContributingFactor{
			FactorType:  "new_account",
			Description: "Account is less than 90 days old",
			Severity:    "low",
		})
	}
	return factors
}

func (s *RiskService) suspiciousTransactions(incident []domain.TransactionEdge) []domain.SuspiciousTransaction {
	suspicious := make([]domain.SuspiciousTransaction, 0)
	for _, edge := range incident {
		var reasons []string
		if s.inBand(edge.Amount) {
			reasons = append(reasons, "Amount near reporting threshold")
		}
		if edge.Amount.GreaterThan(s.cfg.LargeAmount) {
			reasons = append(reasons, "Large transaction amount")
		}
		if edge.TransactionType == "crypto_buy" || edge.TransactionType == "international_wire" {
			reasons = append(reasons, "High-risk transaction type")
		}
		if len(reasons) > 0 {
			suspicious = append(suspicious, domain.SuspiciousTransaction{
				TransactionID:   edge.TransactionID,
				SourceAccountID: edge.SourceAccountID,
				TargetAccountID: edge.TargetAccountID,
				Amount:          edge.Amount,
				Reasons:         reasons,
			})
		}
		if len(suspicious) >= s.cfg.MaxSuspiciousTxns {
			break
		}
	}
	return suspicious
}

func (s *RiskService) inBand(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(s.cfg.BandLow) && amount.LessThanOrEqual(s.cfg.BandHigh)
}

func incidentEdges(links []domain.TransactionEdge, accountID string) []domain.TransactionEdge {
	incident := make([]domain.TransactionEdge, 0, len(links))
	for _, edge := range links {
		if edge.SourceAccountID == accountID || edge.TargetAccountID == accountID {
			incident = append(incident, edge)
		}
	}
	return incident
}

func primaryFlag(hits patternHits) string {
	switch {
	case hits.circularFlow:
		return domain.FlagCircularFlow
	case hits.smurfing:
		return domain.FlagSmurfing
	case hits.structuring:
		return domain.FlagStructuring
	case hits.highVelocity:
		return domain.FlagHighVelocity
	}
	return ""
}

func riskLevel(score float64) domain.RiskLevel {
	switch {
	case score >= 0.8:
		return domain.RiskCritical
	case score >= 0.6:
		return domain.RiskHigh
	case score >= 0.4:
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// Sanity guard used by configuration loading: a weight set that does not sum
// to 1 silently skews every score.
func (c RiskConfig) Validate() error {
	sum := c.BaseWeight + c.NeighborWeight + c.VolumeWeight + c.HighValueWeight + c.StructuringWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: risk weights sum to %.4f, want 1.0", apperrors.ErrValidation, sum)
	}
	return nil
}
