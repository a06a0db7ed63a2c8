// ABOUTME: Plan request parsing and step generation for the /plan command
// ABOUTME: Understands an optional "<N> days" / "<N> дней" duration inside the goal text

package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/2389/synapse-relay/internal/store"
)

const (
	defaultPlanDays = 7
	maxPlanSteps    = 10
)

// planDaysPattern matches "10 days", "10 дней", "3 дня", "1 день" anywhere
// in the goal text. Word boundaries are checked separately because \b is
// ASCII-only and never fires after a Cyrillic letter.
var planDaysPattern = regexp.MustCompile(`(?i)(\d{1,3})\s*(days?|дн(?:ей|я)|день)`)

// parsePlanRequest extracts the duration from the goal text. The duration
// phrase is removed from the returned goal; absent or zero durations fall
// back to defaultPlanDays.
func parsePlanRequest(arg string) (goal string, days int) {
	days = defaultPlanDays
	goal = strings.TrimSpace(arg)

	if m := planDaysPattern.FindStringSubmatchIndex(goal); m != nil && boundedMatch(goal, m[0], m[1]) {
		if n, err := strconv.Atoi(goal[m[2]:m[3]]); err == nil && n > 0 {
			days = n
		}
		goal = strings.TrimSpace(goal[:m[0]] + goal[m[1]:])
		goal = strings.Join(strings.Fields(goal), " ")
	}
	return goal, days
}

// boundedMatch reports whether s[start:end] sits on word boundaries, so
// "3 дня" matches inside a sentence but not inside "3 деньги".
func boundedMatch(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// buildPlan creates a stored plan with generated steps. One step per day,
// capped at maxPlanSteps; longer plans get milestone-sized steps instead.
func buildPlan(arg string) store.Plan {
	goal, days := parsePlanRequest(arg)
	if goal == "" {
		goal = "your goal"
	}

	stepCount := days
	if stepCount > maxPlanSteps {
		stepCount = maxPlanSteps
	}
	if stepCount < 1 {
		stepCount = 1
	}

	steps := make([]string, stepCount)
	span := days / stepCount
	if span < 1 {
		span = 1
	}
	for i := range steps {
		if stepCount == days {
			steps[i] = fmt.Sprintf("Day %d: focused session on %s", i+1, goal)
			continue
		}
		end := (i + 1) * span
		if i == stepCount-1 {
			end = days
		}
		steps[i] = fmt.Sprintf("Days %d-%d: milestone %d toward %s", i*span+1, end, i+1, goal)
	}

	return store.Plan{
		ID:        uuid.New().String(),
		Goal:      goal,
		Days:      days,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
}

// renderPlan formats a plan for the chat reply.
func renderPlan(p store.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %s (%d days)\n", p.Goal, p.Days)
	for _, step := range p.Steps {
		b.WriteString("• ")
		b.WriteString(step)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
