package calculator

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidSplit is returned when an expense cannot be divided among its participants.
var ErrInvalidSplit = errors.New("invalid split")

// maxWeight caps a single WEIGHTED_SHARES weight.
const maxWeight = math.MaxInt32

var maxWeightDecimal = decimal.NewFromInt(maxWeight)

// SplitKind names the rule by which one expense is divided.
type SplitKind string

const (
	SplitEqual          SplitKind = "EQUAL"
	SplitExact          SplitKind = "EXACT"
	SplitPercent        SplitKind = "PERCENT"
	SplitWeightedShares SplitKind = "WEIGHTED_SHARES"
	SplitReimbursement  SplitKind = "REIMBURSEMENT"
)

// Split is one of Equal, Exact, Percent, WeightedShares or Reimbursement.
type Split interface {
	Kind() SplitKind
	allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error)
}

// Equal divides the amount evenly.
type Equal struct{}

// Exact takes each participant's share verbatim. Participants without an
// entry owe nothing.
type Exact struct {
	Amounts map[string]decimal.Decimal
}

// Percent gives each participant a percentage of the amount.
type Percent struct {
	Percentages map[string]decimal.Decimal
}

// WeightedShares divides the amount by integer weights. Participants without
// an entry weigh 1.
type WeightedShares struct {
	Weights map[string]uint
}

// Reimbursement is an equal split kept apart so callers can label it.
type Reimbursement struct{}

func (Equal) Kind() SplitKind          { return SplitEqual }
func (Exact) Kind() SplitKind          { return SplitExact }
func (Percent) Kind() SplitKind        { return SplitPercent }
func (WeightedShares) Kind() SplitKind { return SplitWeightedShares }
func (Reimbursement) Kind() SplitKind  { return SplitReimbursement }

// Expense is the minimal view of an expense the allocator needs.
type Expense struct {
	ID           string
	Amount       decimal.Decimal
	Payer        string
	Participants []string
	Split        Split
}

// Allocation is the per-participant result of splitting one expense.
type Allocation struct {
	Shares   map[string]decimal.Decimal
	Warnings []Warning
}

// Sum returns the total of all shares.
func (a *Allocation) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range a.Shares {
		sum = sum.Add(s)
	}
	return sum
}

// ParseKind normalizes a split kind name. The short names used by older
// clients ("shares", "reimburse") are accepted too.
func ParseKind(s string) (SplitKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "EQUAL":
		return SplitEqual, nil
	case "EXACT":
		return SplitExact, nil
	case "PERCENT":
		return SplitPercent, nil
	case "WEIGHTED_SHARES", "SHARES":
		return SplitWeightedShares, nil
	case "REIMBURSEMENT", "REIMBURSE":
		return SplitReimbursement, nil
	default:
		return "", fmt.Errorf("%w: unknown split kind %q", ErrInvalidSplit, s)
	}
}

// ParseSplit resolves a stored kind and its loosely typed parameters into a Split.
func ParseSplit(kind string, params map[string]decimal.Decimal) (Split, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	switch k {
	case SplitEqual, SplitReimbursement:
		if len(params) > 0 {
			return nil, fmt.Errorf("%w: %s split takes no parameters", ErrInvalidSplit, k)
		}
		if k == SplitEqual {
			return Equal{}, nil
		}
		return Reimbursement{}, nil

	case SplitExact:
		return Exact{Amounts: params}, nil

	case SplitPercent:
		return Percent{Percentages: params}, nil

	default:
		weights := make(map[string]uint, len(params))
		for member, v := range params {
			if v.IsNegative() || !v.IsInteger() {
				return nil, fmt.Errorf("%w: weight for %q must be a non-negative integer, got %s", ErrInvalidSplit, member, v)
			}
			if v.GreaterThan(maxWeightDecimal) {
				return nil, fmt.Errorf("%w: weight for %q exceeds %d", ErrInvalidSplit, member, maxWeight)
			}
			weights[member] = uint(v.IntPart())
		}
		return WeightedShares{Weights: weights}, nil
	}
}

// Params flattens a Split back into the stored parameter map.
func Params(s Split) map[string]decimal.Decimal {
	switch v := s.(type) {
	case Exact:
		return v.Amounts
	case Percent:
		return v.Percentages
	case WeightedShares:
		params := make(map[string]decimal.Decimal, len(v.Weights))
		for m, w := range v.Weights {
			params[m] = decimal.NewFromInt(int64(w))
		}
		return params
	default:
		return nil
	}
}

// Allocate splits one expense among its participants. Shares reconcile
// exactly with the amount for EQUAL, REIMBURSEMENT, WEIGHTED_SHARES and
// consistent PERCENT splits. EXACT and PERCENT parameters that do not
// reconcile produce a SPLIT_MISMATCH warning rather than an error.
func Allocate(e Expense, r Rounding) (*Allocation, error) {
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSplit, e.Amount)
	}
	if len(e.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalidSplit)
	}
	seen := make(map[string]bool, len(e.Participants))
	for _, p := range e.Participants {
		if p == "" {
			return nil, fmt.Errorf("%w: participant name is empty", ErrInvalidSplit)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: participant %q listed twice", ErrInvalidSplit, p)
		}
		seen[p] = true
	}

	split := e.Split
	if split == nil {
		split = Equal{}
	}

	shares, warnings, err := split.allocate(e, r)
	if err != nil {
		return nil, err
	}
	for i := range warnings {
		warnings[i].ExpenseID = e.ID
	}
	return &Allocation{Shares: shares, Warnings: warnings}, nil
}

func (Equal) allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error) {
	// Spare units go to the front of the participant list, one each
	// (100 over 3 is 34, 33, 33 and 0.05 over 3 is 0.02, 0.02, 0.01).
	// Only a sub-unit residue lands on the last participant.
	return r.apportion(e.Amount, e.Participants, ones(len(e.Participants))), nil, nil
}

func (Reimbursement) allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error) {
	return Equal{}.allocate(e, r)
}

func (s Exact) allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error) {
	if err := checkMembers(s.Amounts, e.Participants); err != nil {
		return nil, nil, err
	}

	shares := make(map[string]decimal.Decimal, len(e.Participants))
	sum := decimal.Zero
	for _, p := range e.Participants {
		v := s.Amounts[p]
		if v.IsNegative() {
			return nil, nil, fmt.Errorf("%w: exact amount for %q is negative", ErrInvalidSplit, p)
		}
		shares[p] = v
		sum = sum.Add(v)
	}

	var warnings []Warning
	if sum.Sub(e.Amount).Abs().GreaterThan(splitTolerance) {
		warnings = append(warnings, Warning{
			Kind:     WarningSplitMismatch,
			Expected: e.Amount,
			Actual:   sum,
			Message:  fmt.Sprintf("exact amounts total %s but the expense is %s", sum, e.Amount),
		})
	}
	return shares, warnings, nil
}

func (s Percent) allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error) {
	if err := checkMembers(s.Percentages, e.Participants); err != nil {
		return nil, nil, err
	}

	weights := make([]decimal.Decimal, len(e.Participants))
	sum := decimal.Zero
	for i, p := range e.Participants {
		v := s.Percentages[p]
		if v.IsNegative() {
			return nil, nil, fmt.Errorf("%w: percentage for %q is negative", ErrInvalidSplit, p)
		}
		weights[i] = v
		sum = sum.Add(v)
	}

	if sum.Sub(hundred).Abs().LessThanOrEqual(splitTolerance) {
		return r.apportion(e.Amount, e.Participants, weights), nil, nil
	}

	target := r.Round(e.Amount.Mul(sum).Div(hundred))
	warnings := []Warning{{
		Kind:     WarningSplitMismatch,
		Expected: hundred,
		Actual:   sum,
		Message:  fmt.Sprintf("percentages total %s%%, allocating %s of %s", sum, target, e.Amount),
	}}
	return r.apportion(target, e.Participants, weights), warnings, nil
}

func (s WeightedShares) allocate(e Expense, r Rounding) (map[string]decimal.Decimal, []Warning, error) {
	if err := checkMembers(s.Weights, e.Participants); err != nil {
		return nil, nil, err
	}

	weights := make([]decimal.Decimal, len(e.Participants))
	var total uint64
	for i, p := range e.Participants {
		w, ok := s.Weights[p]
		if !ok {
			w = 1
		}
		if w > maxWeight {
			return nil, nil, fmt.Errorf("%w: weight for %q exceeds %d", ErrInvalidSplit, p, maxWeight)
		}
		weights[i] = decimal.NewFromInt(int64(w))
		total += uint64(w)
	}
	if total == 0 {
		return nil, nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidSplit)
	}
	return r.apportion(e.Amount, e.Participants, weights), nil, nil
}

// checkMembers rejects parameters keyed by someone outside the participant list.
func checkMembers[V any](params map[string]V, participants []string) error {
	var unknown []string
	for m := range params {
		if !slices.Contains(participants, m) {
			unknown = append(unknown, m)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("%w: not participants: %s", ErrInvalidSplit, strings.Join(unknown, ", "))
}

func ones(n int) []decimal.Decimal {
	w := make([]decimal.Decimal, n)
	for i := range w {
		w[i] = decimal.NewFromInt(1)
	}
	return w
}
