package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions(kv ...string) Positions {
	p := make(Positions, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p[kv[i]] = &MemberPosition{Member: kv[i], Balance: d(kv[i+1])}
	}
	return p
}

type row struct {
	From, To, Amount string
}

func rows(plan *SettlementPlan) []row {
	out := make([]row, 0, len(plan.Settlements))
	for _, s := range plan.Settlements {
		out = append(out, row{s.From, s.To, s.Amount.String()})
	}
	return out
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name      string
		positions Positions
		rounding  Rounding
		want      []row
		wantWarn  bool
	}{
		{
			name:      "two debtors one creditor",
			positions: positions("A", "-50", "B", "-30", "C", "80"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "C", "50"}, {"B", "C", "30"}},
		},
		{
			name:      "one debtor two creditors",
			positions: positions("A", "-90", "B", "60", "C", "30"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "B", "60"}, {"A", "C", "30"}},
		},
		{
			name:      "equal amounts break ties by name",
			positions: positions("Zed", "-10", "Amy", "-10", "Kim", "10", "Bo", "10"),
			rounding:  DefaultRounding,
			want:      []row{{"Amy", "Bo", "10"}, {"Zed", "Kim", "10"}},
		},
		{
			name:      "partial matches carry over",
			positions: positions("A", "-70", "B", "-30", "C", "40", "D", "60"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "D", "60"}, {"A", "C", "10"}, {"B", "C", "30"}},
		},
		{
			name:      "all settled",
			positions: positions("A", "0", "B", "0"),
			rounding:  DefaultRounding,
			want:      []row{},
		},
		{
			name:      "empty ledger",
			positions: Positions{},
			rounding:  DefaultRounding,
			want:      []row{},
		},
		{
			name:      "balances at half a unit count as settled",
			positions: positions("A", "-0.005", "B", "0.005"),
			rounding:  DefaultRounding,
			want:      []row{},
		},
		{
			name:      "creditors only is an imbalance",
			positions: positions("A", "25", "B", "0"),
			rounding:  DefaultRounding,
			want:      []row{},
			wantWarn:  true,
		},
		{
			name:      "residue beyond one unit is reported",
			positions: positions("A", "-10", "B", "12"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "B", "10"}},
			wantWarn:  true,
		},
		{
			name:      "residue of a single unit is reported",
			positions: positions("A", "-10", "B", "10.01"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "B", "10"}},
			wantWarn:  true,
		},
		{
			name:      "debtor left with one unit is reported",
			positions: positions("A", "-0.01", "B", "-0.01", "C", "0.01"),
			rounding:  DefaultRounding,
			want:      []row{{"A", "C", "0.01"}},
			wantWarn:  true,
		},
		{
			name:      "zero-decimal currency",
			positions: positions("A", "-34", "B", "-33", "C", "67"),
			rounding:  Rounding{Places: 0},
			want:      []row{{"A", "C", "34"}, {"B", "C", "33"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Settle(tt.positions, tt.rounding)
			assert.Equal(t, tt.want, rows(plan))
			if tt.wantWarn {
				require.Len(t, plan.Warnings, 1)
				assert.Equal(t, WarningLedgerImbalance, plan.Warnings[0].Kind)
			} else {
				assert.Empty(t, plan.Warnings)
			}
		})
	}
}

func TestSettle_NoSelfTransfersAndPositiveAmounts(t *testing.T) {
	plan := Settle(positions(
		"A", "-12.34", "B", "-0.66", "C", "-7",
		"D", "3.5", "E", "16.5",
	), DefaultRounding)

	total := d("0")
	for _, s := range plan.Settlements {
		assert.NotEqual(t, s.From, s.To)
		assert.True(t, s.Amount.IsPositive())
		total = total.Add(s.Amount)
	}
	assert.True(t, total.Equal(d("20")), "total = %s", total)
	assert.LessOrEqual(t, len(plan.Settlements), 4)
}

// Map iteration order must not leak into the plan.
func TestSettle_Deterministic(t *testing.T) {
	p := positions(
		"Ann", "-20", "Ben", "-20", "Cat", "-20",
		"Dan", "30", "Eve", "30",
	)
	first := rows(Settle(p, DefaultRounding))
	assert.Equal(t, []row{{"Ann", "Dan", "20"}, {"Ben", "Dan", "10"}, {"Ben", "Eve", "10"}, {"Cat", "Eve", "20"}}, first)
	for range 50 {
		assert.Equal(t, first, rows(Settle(p, DefaultRounding)))
	}
}

// Sub-cent EXACT amounts that total the expense still leave a cent of
// rounding behind in the balances; the solver must not drop it quietly.
func TestSettle_ReportsSubUnitLeftover(t *testing.T) {
	group := Group{ID: "g", Members: []string{"A", "B", "C", "D"}}
	expenses := []Expense{{
		ID:           "dinner",
		Amount:       d("10"),
		Payer:        "D",
		Participants: []string{"A", "B", "C"},
		Split:        Exact{Amounts: amounts("A", "3.335", "B", "3.335", "C", "3.33")},
	}}

	agg, err := Aggregate(group, expenses, nil, DefaultRounding)
	require.NoError(t, err)

	plan := Settle(agg.Positions, DefaultRounding)
	assert.Equal(t, []row{{"A", "D", "3.34"}, {"B", "D", "3.34"}, {"C", "D", "3.32"}}, rows(plan))
	require.Len(t, plan.Warnings, 1)
	w := plan.Warnings[0]
	assert.Equal(t, WarningLedgerImbalance, w.Kind)
	assert.Equal(t, "0.01", w.Actual.String())
	assert.Contains(t, w.Message, "C")
}

// Applying a plan as payments and re-aggregating must leave nothing to settle.
func TestSettle_PlanClearsLedger(t *testing.T) {
	group := Group{ID: "flat", Members: []string{"A", "B", "C", "D"}}
	expenses := []Expense{
		{ID: "rent", Amount: d("1200"), Payer: "A", Participants: []string{"A", "B", "C", "D"}},
		{ID: "food", Amount: d("87.53"), Payer: "B", Participants: []string{"A", "B", "C"}},
		{ID: "taxi", Amount: d("40"), Payer: "C", Participants: []string{"C", "D"}, Split: Exact{Amounts: amounts("C", "15", "D", "25")}},
	}

	agg, err := Aggregate(group, expenses, nil, DefaultRounding)
	require.NoError(t, err)
	plan := Settle(agg.Positions, DefaultRounding)
	require.NotEmpty(t, plan.Settlements)

	var payments []Payment
	for _, s := range plan.Settlements {
		payments = append(payments, Payment{Payer: s.From, Payee: s.To, Amount: s.Amount})
	}

	after, err := Aggregate(group, expenses, payments, DefaultRounding)
	require.NoError(t, err)
	for _, pos := range after.Positions {
		assert.True(t, pos.Balance.IsZero(), "%s still at %s", pos.Member, pos.Balance)
	}
	assert.Empty(t, Settle(after.Positions, DefaultRounding).Settlements)
}
