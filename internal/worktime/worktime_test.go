package worktime

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sumire/devtrack/internal/domain"
)

func logs(issueID int64, hours ...string) []domain.WorkLog {
	out := make([]domain.WorkLog, 0, len(hours))
	for _, h := range hours {
		out = append(out, domain.WorkLog{IssueID: issueID, Hours: decimal.RequireFromString(h)})
	}
	return out
}

func TestSumEmptyIsZero(t *testing.T) {
	t.Parallel()
	total := Sum(nil)
	if !total.IsZero() {
		t.Errorf("Sum(nil) = %s, want 0", total)
	}
	if total.String() != "0" {
		t.Errorf("Sum(nil).String() = %q, want %q", total.String(), "0")
	}
}

func TestSumIsExact(t *testing.T) {
	t.Parallel()
	total := Sum(logs(1, "2.5", "1.5"))
	if !total.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Sum(2.5, 1.5) = %s, want 4", total)
	}

	var many []domain.WorkLog
	for range 1000 {
		many = append(many, logs(1, "0.25")...)
	}
	if got := Sum(many); !got.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Sum(1000 x 0.25) = %s, want 250", got)
	}
}

func TestSumIsOrderIndependent(t *testing.T) {
	t.Parallel()
	set := logs(7, "0.25", "1.75", "3", "0.5", "12.25", "0.75", "8")
	want := Sum(set)

	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		shuffled := append([]domain.WorkLog(nil), set...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Sum(shuffled); !got.Equal(want) {
			t.Fatalf("Sum(shuffled) = %s, want %s", got, want)
		}
	}
}

func TestProjectTotalAgreesWithFlatSum(t *testing.T) {
	t.Parallel()
	var all []domain.WorkLog
	all = append(all, logs(1, "2.5", "1.5")...)
	all = append(all, logs(2, "0.25", "0.25", "0.5")...)
	all = append(all, logs(3)...)
	all = append(all, logs(4, "10", "0.75")...)

	totals := ByIssue(all)
	if got := IssueTotal(totals, 1); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("IssueTotal(1) = %s, want 4", got)
	}
	if got := IssueTotal(totals, 3); !got.IsZero() {
		t.Errorf("IssueTotal(3) = %s, want 0", got)
	}

	grouped := ProjectTotal(totals)
	flat := Sum(all)
	if !grouped.Equal(flat) {
		t.Errorf("ProjectTotal = %s, Sum = %s; want equal", grouped, flat)
	}
	if !flat.Equal(decimal.RequireFromString("15.75")) {
		t.Errorf("Sum = %s, want 15.75", flat)
	}
}

func TestValidateHours(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hours string
		ok    bool
	}{
		{"0.25", true},
		{"1", true},
		{"2.5", true},
		{"7.75", true},
		{"0.250", true},
		{"0", false},
		{"-1", false},
		{"0.3", true},
		{"1.1", true},
		{"3.99", true},
		{"0.2", false},
		{"0.125", false},
		{"1.005", false},
		{"999999.75", true},
		{"1000000", false},
	}
	for _, tt := range tests {
		err := ValidateHours(decimal.RequireFromString(tt.hours))
		if tt.ok && err != nil {
			t.Errorf("ValidateHours(%s) error: %v", tt.hours, err)
		}
		if !tt.ok {
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("ValidateHours(%s) = %v, want ValidationError", tt.hours, err)
			} else if verr.Field != "hours" {
				t.Errorf("ValidateHours(%s) field = %q, want hours", tt.hours, verr.Field)
			}
		}
	}
}
