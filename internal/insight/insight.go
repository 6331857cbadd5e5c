// Package insight renders analytics results as short user-facing text.
// Every function is deterministic: where several phrasings exist, the
// choice is keyed off the figures being described.
package insight

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"finhub-analytics-backend/internal/domain"
)

// DefaultName addresses users whose record is missing.
const DefaultName = "Friend"

var printer = message.NewPrinter(language.English)

// Naira formats an amount with thousands separators, dropping the fraction
// when it is whole. The sign goes before the currency symbol.
func Naira(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	if amount == math.Trunc(amount) {
		return sign + printer.Sprintf("₦%.0f", amount)
	}
	return sign + printer.Sprintf("₦%.2f", amount)
}

func pick(options []string, key float64) string {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		key = 0
	}
	i := int(math.Mod(math.Abs(math.Trunc(key)), float64(len(options))))
	return options[i]
}

// Emotional addresses the user by name with a note tuned to their
// personality.
func Emotional(p domain.Personality, m domain.FinancialMetrics, name string) string {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	switch p {
	case domain.Planner:
		return fmt.Sprintf("Great job, %s! Your disciplined approach to saving %.1f%% of your income shows excellent financial planning. Keep up the consistent habits!", name, m.SavingsRatio)
	case domain.Spender:
		return fmt.Sprintf("Hey %s, I notice you enjoy life's pleasures! While spending can bring joy, consider setting aside a small amount each month for future goals. Even 5%% can make a difference.", name)
	case domain.Minimalist:
		return fmt.Sprintf("%s, your mindful spending approach is admirable! You're living below your means, which gives you great financial flexibility. Consider investing some of your surplus for long-term growth.", name)
	case domain.Balancer:
		return fmt.Sprintf("%s, you've found a nice balance between enjoying today and planning for tomorrow. Your %.1f%% savings rate shows you're on a solid path!", name, m.SavingsRatio)
	default:
		return fmt.Sprintf("%s, you're developing your unique financial style. Keep tracking your progress and celebrating small wins along the way!", name)
	}
}

var creditStories = map[domain.Personality]string{
	domain.Planner:    "Your consistent saving habits and regular income patterns demonstrate strong financial discipline. Lenders see you as a reliable borrower who manages money responsibly.",
	domain.Spender:    "While you enjoy spending, working on building a more consistent savings pattern could significantly improve your creditworthiness. Small changes can lead to big improvements.",
	domain.Minimalist: "Your low spending relative to income shows excellent self-control. This conservative approach to money management is viewed very favorably by credit agencies.",
	domain.Balancer:   "You've struck a good balance between spending and saving. This measured approach to finances demonstrates the kind of stability that builds strong credit over time.",
}

// CreditStory explains the credit score in terms of the personality, with
// notes for overdrafts and very regular income.
func CreditStory(m domain.FinancialMetrics, p domain.Personality) string {
	story, ok := creditStories[p]
	if !ok {
		story = "You're building your financial story one transaction at a time."
	}
	if m.Overdrafts > 0 {
		story += " Focus on avoiding overdrafts to strengthen your credit profile."
	}
	if m.ConsistencyScore > 80 {
		story += " Your consistent income pattern is a strong positive factor."
	}
	return story
}

// CashflowWarning is empty for low risk.
func CashflowWarning(riskLevel string, daysUntilLow *int) string {
	switch riskLevel {
	case "High":
		days := 7
		if daysUntilLow != nil {
			days = *daysUntilLow
		}
		return fmt.Sprintf("Your balance might run low in %d days. Consider reducing spending or increasing income.", days)
	case "Medium":
		return "Your balance is getting low. Keep an eye on your spending this week."
	default:
		return ""
	}
}

// SavingsMotivation encourages the suggested monthly amount.
func SavingsMotivation(monthly, currentRatio float64) string {
	amount := Naira(monthly)
	return pick([]string{
		fmt.Sprintf("Save %s monthly and watch your money grow! Small steps, big results.", amount),
		fmt.Sprintf("Your target: %s per month. You're currently saving %.1f%% - let's improve!", amount, currentRatio),
		fmt.Sprintf("Consistency is key! %s monthly savings will secure your future.", amount),
		fmt.Sprintf("Challenge yourself: Save %s monthly. Your future self will thank you!", amount),
	}, monthly)
}

// GoalMotivation comments on a savings goal's feasibility.
func GoalMotivation(target float64, daysRemaining int, achievable bool) string {
	if achievable {
		return fmt.Sprintf("Your %s goal is achievable in %d days! Stay focused and consistent.", Naira(target), daysRemaining)
	}
	return fmt.Sprintf("Your %s goal in %d days is ambitious. Consider extending the timeline or reducing expenses.", Naira(target), daysRemaining)
}

// EventSpending summarises detected event outings over a window.
func EventSpending(total float64, count, windowDays int) string {
	if count == 0 {
		return "You've been staying home lately! Your wallet appreciates the break from owambes."
	}
	average := total / float64(count)
	return pick([]string{
		fmt.Sprintf("You attended %d events and spent %s. That's %s per owambe!", count, Naira(total), Naira(average)),
		fmt.Sprintf("%d parties in %d days? You're definitely the life of the party! Total damage: %s.", count, windowDays, Naira(total)),
		fmt.Sprintf("Your social calendar is busy! %s on %d events. Remember to budget for fun!", Naira(total), count),
		fmt.Sprintf("Party animal alert! %s on celebrations. Your friends must love having you around!", Naira(total)),
	}, total)
}

// HighestSpendingBank names the bank with the most spending activity.
func HighestSpendingBank(bankName string, total float64) string {
	return fmt.Sprintf("%s accounts show the highest spending activity with %s.", bankName, Naira(total))
}

// TopCategoryOverall names the category with the largest spend across banks.
func TopCategoryOverall(cat domain.Category, total float64) string {
	return fmt.Sprintf("Across all banks, you spend most on %s (%s).", cat, Naira(total))
}
