package scoring

// Score bounds and weights. One policy for the whole system: every call site
// derives score and tier through Score and TierFor, nowhere else.
const (
	MinScore  = 300
	MaxScore  = 850
	BaseScore = 500

	completedLoanPoints = 30
	defaultedLoanPoints = 50
	repaymentPoints     = 5
	approvedKYCPoints   = 15
	depositPoints       = 2
	depositBonusCap     = 50
)

// Tiers, lowest to highest.
const (
	TierBasic    = "basic"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Snapshot is a typed summary of a user's history, assembled by the service
// from the loan, ledger and KYC stores.
type Snapshot struct {
	CompletedLoans      int
	DefaultedLoans      int
	CompletedRepayments int
	Deposits            int
	ApprovedKYCDocs     int
}

// Score computes the kifaa score for a history snapshot: a weighted tally
// from a base of 500, with the deposit bonus capped, clamped to [300, 850].
func Score(s Snapshot) int {
	score := BaseScore
	score += completedLoanPoints * s.CompletedLoans
	score -= defaultedLoanPoints * s.DefaultedLoans
	score += repaymentPoints * s.CompletedRepayments
	score += approvedKYCPoints * s.ApprovedKYCDocs

	bonus := depositPoints * s.Deposits
	if bonus > depositBonusCap {
		bonus = depositBonusCap
	}
	score += bonus

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// TierFor maps a score onto the tier ladder.
func TierFor(score int) string {
	switch {
	case score > 700:
		return TierPlatinum
	case score > 600:
		return TierGold
	case score > 500:
		return TierSilver
	default:
		return TierBasic
	}
}
