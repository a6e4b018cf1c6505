package services

import (
	"fmt"
	"sync"
	"testing"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dates(t *testing.T, occ []core.Occurrence) []string {
	t.Helper()
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = o.DueDate.String()
	}
	return out
}

func cents(ms []core.Money) []int64 {
	out := make([]int64, len(ms))
	for i, m := range ms {
		out[i] = m.Cents
	}
	return out
}

func TestExpand(t *testing.T) {
	amount := core.Money{Cents: 5000}

	tests := []struct {
		name  string
		start string
		rule  core.RecurrenceRule
		want  []string
	}{
		{
			name:  "single",
			start: "2024-06-03",
			rule:  core.RecurrenceRule{Kind: core.Single, OccurrenceCount: 1},
			want:  []string{"2024-06-03"},
		},
		{
			name:  "single with repeated count collapses to start",
			start: "2024-06-03",
			rule:  core.RecurrenceRule{Kind: core.Single, OccurrenceCount: 3},
			want:  []string{"2024-06-03", "2024-06-03", "2024-06-03"},
		},
		{
			name:  "custom interval crosses month end",
			start: "2024-01-25",
			rule:  core.RecurrenceRule{Kind: core.CustomInterval, OccurrenceCount: 4, IntervalDays: 10},
			want:  []string{"2024-01-25", "2024-02-04", "2024-02-14", "2024-02-24"},
		},
		{
			name:  "weekly monday to friday",
			start: "2024-06-03",
			rule:  core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 3, Weekday: 5},
			want:  []string{"2024-06-03", "2024-06-07", "2024-06-14"},
		},
		{
			name:  "weekly start already on weekday moves a full week",
			start: "2024-06-07",
			rule:  core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 3, Weekday: 5},
			want:  []string{"2024-06-07", "2024-06-14", "2024-06-21"},
		},
		{
			name:  "weekly wraps past saturday",
			start: "2024-06-08",
			rule:  core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 2, Weekday: 1},
			want:  []string{"2024-06-08", "2024-06-10"},
		},
		{
			name:  "monthly clamps without drift",
			start: "2024-01-31",
			rule:  core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: 5},
			want:  []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"},
		},
		{
			name:  "yearly leap day",
			start: "2024-02-29",
			rule:  core.RecurrenceRule{Kind: core.Yearly, OccurrenceCount: 5},
			want:  []string{"2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, err := Expand(core.MustParseDate(tt.start), tt.rule, amount, "Aluguel")
			require.NoError(t, err)
			assert.Equal(t, tt.want, dates(t, occ))
			for _, o := range occ {
				assert.Equal(t, amount, o.Amount)
				assert.Equal(t, "Aluguel", o.Description)
			}
		})
	}
}

func TestExpandFirstOccurrenceIsStart(t *testing.T) {
	start := core.MustParseDate("2023-03-31")
	rules := []core.RecurrenceRule{
		{Kind: core.Single, OccurrenceCount: 2},
		{Kind: core.CustomInterval, OccurrenceCount: 2, IntervalDays: 3},
		{Kind: core.Monthly, OccurrenceCount: 2},
		{Kind: core.Yearly, OccurrenceCount: 2},
	}
	for wd := 0; wd <= 6; wd++ {
		rules = append(rules, core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 4, Weekday: wd})
	}
	for _, rule := range rules {
		occ, err := Expand(start, rule, core.Money{Cents: 1}, "x")
		require.NoError(t, err)
		require.Len(t, occ, rule.OccurrenceCount)
		assert.Equal(t, start, occ[0].DueDate, "kind %s", rule.Kind)
	}
}

func TestExpandWeeklyLandsOnWeekday(t *testing.T) {
	start := core.MustParseDate("2024-06-03")
	for wd := 0; wd <= 6; wd++ {
		occ, err := Expand(start, core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 6, Weekday: wd}, core.Money{Cents: 1}, "x")
		require.NoError(t, err)
		for i := 1; i < len(occ); i++ {
			assert.Equal(t, wd, occ[i].DueDate.Weekday())
			assert.True(t, occ[i].DueDate.After(occ[i-1].DueDate))
		}
	}
}

func TestExpandMonthlyThirteenth(t *testing.T) {
	occ, err := Expand(core.MustParseDate("2024-01-31"), core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: 13}, core.Money{Cents: 100}, "x")
	require.NoError(t, err)
	require.Len(t, occ, 13)
	assert.Equal(t, "2024-02-29", occ[1].DueDate.String())
	assert.Equal(t, "2025-01-31", occ[12].DueDate.String())
}

func TestExpandErrors(t *testing.T) {
	start := core.MustParseDate("2024-06-03")
	tests := []struct {
		name string
		rule core.RecurrenceRule
	}{
		{"zero count", core.RecurrenceRule{Kind: core.Monthly}},
		{"negative count", core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: -2}},
		{"interval zero", core.RecurrenceRule{Kind: core.CustomInterval, OccurrenceCount: 2}},
		{"weekday too large", core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 2, Weekday: 7}},
		{"weekday too small", core.RecurrenceRule{Kind: core.Weekly, OccurrenceCount: 2, Weekday: -1}},
		{"count over limit", core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: core.MaxOccurrences + 1}},
		{"huge count", core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: 200000000}},
		{"unknown kind", core.RecurrenceRule{Kind: "daily", OccurrenceCount: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Expand(start, tt.rule, core.Money{Cents: 1}, "x")
			assert.ErrorIs(t, err, core.ErrInvalidRule)
		})
	}

	_, err := Expand(core.Date{}, core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: 1}, core.Money{Cents: 1}, "x")
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestExpandRejectsDatesPastYear9999(t *testing.T) {
	start := core.MustParseDate("9998-06-15")

	_, err := Expand(start, core.RecurrenceRule{Kind: core.Yearly, OccurrenceCount: 3}, core.Money{Cents: 1}, "x")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = Expand(start, core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: core.MaxOccurrences}, core.Money{Cents: 1}, "x")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	occ, err := Expand(start, core.RecurrenceRule{Kind: core.Yearly, OccurrenceCount: 2}, core.Money{Cents: 1}, "x")
	require.NoError(t, err)
	assert.Equal(t, "9999-06-15", occ[1].DueDate.String())
}

func TestSplitInstallments(t *testing.T) {
	tests := []struct {
		total int64
		count int
		want  []int64
	}{
		{100000, 3, []int64{33333, 33333, 33334}},
		{100000, 1, []int64{100000}},
		{100, 3, []int64{33, 33, 34}},
		{1000, 4, []int64{250, 250, 250, 250}},
		{3, 3, []int64{1, 1, 1}},
		{1099, 10, []int64{109, 109, 109, 109, 109, 109, 109, 109, 109, 118}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.total, tt.count), func(t *testing.T) {
			got, err := SplitInstallments(core.Money{Cents: tt.total}, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cents(got))
		})
	}
}

func TestSplitInstallmentsSumAndPositivity(t *testing.T) {
	for total := int64(1); total <= 2500; total += 37 {
		for count := 1; count <= 48; count++ {
			if total < int64(count) {
				continue
			}
			got, err := SplitInstallments(core.Money{Cents: total}, count)
			require.NoError(t, err)
			require.Len(t, got, count)
			var sum int64
			for _, m := range got {
				require.Positive(t, m.Cents)
				sum += m.Cents
			}
			require.Equal(t, total, sum, "total=%d count=%d", total, count)
		}
	}
}

func TestSplitInstallmentsErrors(t *testing.T) {
	_, err := SplitInstallments(core.Money{Cents: 1000}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)

	_, err = SplitInstallments(core.Money{Cents: 1000}, -3)
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)

	_, err = SplitInstallments(core.Money{Cents: 1 << 40}, core.MaxOccurrences+1)
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)

	got, err := SplitInstallments(core.Money{Cents: 1 << 40}, core.MaxOccurrences)
	require.NoError(t, err)
	assert.Len(t, got, core.MaxOccurrences)

	_, err = SplitInstallments(core.Money{Cents: 0}, 3)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = SplitInstallments(core.Money{Cents: -500}, 3)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = SplitInstallments(core.Money{Cents: 2}, 3)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestInstallmentEntryModesConverge(t *testing.T) {
	// The user typed "R$ 333,34" per installment for 3 installments.
	per, err := core.ParseMoney("333,34")
	require.NoError(t, err)
	total, err := InstallmentTotal(per, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(100002), total.Cents)

	fromPer, err := SplitInstallments(total, 3)
	require.NoError(t, err)
	fromTotal, err := SplitInstallments(core.Money{Cents: 100002}, 3)
	require.NoError(t, err)
	assert.Equal(t, fromTotal, fromPer)
	assert.Equal(t, []int64{33334, 33334, 33334}, cents(fromPer))

	_, err = InstallmentTotal(core.Money{Cents: 100}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)
	_, err = InstallmentTotal(core.Money{Cents: 100}, 200000000)
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)
	_, err = InstallmentTotal(core.Money{Cents: 0}, 2)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = InstallmentTotal(core.Money{Cents: 1 << 62}, 4)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestPlanInstallments(t *testing.T) {
	occ, err := PlanInstallments(core.MustParseDate("2024-01-31"), core.Money{Cents: 100000}, 3, "Notebook")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31"}, dates(t, occ))
	assert.Equal(t, "Notebook (1/3)", occ[0].Description)
	assert.Equal(t, "Notebook (3/3)", occ[2].Description)
	assert.Equal(t, int64(33334), occ[2].Amount.Cents)

	single, err := PlanInstallments(core.MustParseDate("2024-01-10"), core.Money{Cents: 500}, 1, "Livro")
	require.NoError(t, err)
	assert.Equal(t, "Livro", single[0].Description)

	_, err = PlanInstallments(core.MustParseDate("9999-11-10"), core.Money{Cents: 500}, 3, "Livro")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = PlanInstallments(core.MustParseDate("2024-01-10"), core.Money{Cents: 1 << 40}, 200000000, "Livro")
	assert.ErrorIs(t, err, core.ErrInvalidInstallmentCount)
}

func TestPlanInstallmentsDoesNotReapplyClosingDay(t *testing.T) {
	// With a closing day of 20, a single charge on 2024-05-25 would move to
	// June. Installment dates are plain month steps from the first date.
	occ, err := PlanInstallments(core.MustParseDate("2024-05-25"), core.Money{Cents: 30000}, 3, "TV")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-25", "2024-06-25", "2024-07-25"}, dates(t, occ))
}

func TestResolveBillingCycle(t *testing.T) {
	tests := []struct {
		date    string
		closing int
		want    string
	}{
		{"2024-03-15", 15, "2024-04-15"},
		{"2024-03-14", 15, "2024-03-14"},
		{"2024-05-25", 20, "2024-06-25"},
		{"2024-01-31", 10, "2024-02-29"},
		{"2024-12-28", 5, "2025-01-28"},
		{"2024-02-29", 31, "2024-02-29"},
		{"2024-03-31", 31, "2024-04-30"},
		{"2024-03-01", 1, "2024-04-01"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_close_%d", tt.date, tt.closing), func(t *testing.T) {
			got, err := ResolveBillingCycle(core.MustParseDate(tt.date), tt.closing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveBillingCycleInvalidCard(t *testing.T) {
	for _, closing := range []int{0, -1, 32, 100} {
		_, err := ResolveBillingCycle(core.MustParseDate("2024-03-15"), closing)
		assert.ErrorIs(t, err, core.ErrInvalidCard, "closing day %d", closing)
	}

	_, err := ResolveBillingCycle(core.MustParseDate("9999-12-20"), 10)
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestStatementDueDate(t *testing.T) {
	card := core.Card{Name: "Visa", ClosingDay: 25, DueDay: 31}
	got, err := StatementDueDate(core.MustParseDate("2024-02-10"), card)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.String())

	card.DueDay = 0
	_, err = StatementDueDate(core.MustParseDate("2024-02-10"), card)
	assert.ErrorIs(t, err, core.ErrInvalidCard)
}

func TestClassifyDueStatus(t *testing.T) {
	today := core.MustParseDate("2024-06-10")
	tests := []struct {
		due    string
		isPaid bool
		want   core.Status
	}{
		{"2024-06-09", false, core.StatusOverdue},
		{"2024-06-10", false, core.StatusDueToday},
		{"2024-06-11", false, core.StatusUpcoming},
		{"2024-06-01", false, core.StatusOverdue},
		{"2024-06-01", true, core.StatusPaid},
		{"2024-06-10", true, core.StatusPaid},
		{"2024-07-01", true, core.StatusPaid},
		{"2023-12-31", false, core.StatusOverdue},
		{"2025-01-01", false, core.StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_paid_%v", tt.due, tt.isPaid), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDueStatus(core.MustParseDate(tt.due), tt.isPaid, today))
		})
	}
}

func TestEngineIsIdempotentUnderConcurrency(t *testing.T) {
	start := core.MustParseDate("2024-01-31")
	rule := core.RecurrenceRule{Kind: core.Monthly, OccurrenceCount: 24}
	want, err := Expand(start, rule, core.Money{Cents: 999}, "x")
	require.NoError(t, err)
	wantSplit, err := SplitInstallments(core.Money{Cents: 100000}, 7)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Expand(start, rule, core.Money{Cents: 999}, "x")
			assert.NoError(t, err)
			assert.Equal(t, want, got)

			split, err := SplitInstallments(core.Money{Cents: 100000}, 7)
			assert.NoError(t, err)
			assert.Equal(t, wantSplit, split)

			cycle, _ := ResolveBillingCycle(core.MustParseDate("2024-05-25"), 20)
			assert.Equal(t, "2024-06-25", cycle.String())
			assert.Equal(t, core.StatusDueToday, ClassifyDueStatus(start, false, start))
		}()
	}
	wg.Wait()
}
