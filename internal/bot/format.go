package bot

import (
	"fmt"
	"strings"

	"nutrition-bot/internal/models"
)

func formatAnalysis(analysis models.FoodAnalysis, profile *models.UserProfile) string {
	n := analysis.Nutrition

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🍽️ *%s*\n\n", strings.Join(analysis.FoodItems, ", ")))
	b.WriteString("📊 *Nutrition Analysis:*\n")
	b.WriteString(fmt.Sprintf("• Calories: %.0f\n", n.Calories))
	b.WriteString(fmt.Sprintf("• *Protein: %.1fg (%s)* 🎯\n", n.Protein, proteinShare(n.Protein, profile)))
	b.WriteString(fmt.Sprintf("• Carbs: %.1fg\n", n.Carbs))
	b.WriteString(fmt.Sprintf("• Fat: %.1fg\n", n.Fat))
	b.WriteString(fmt.Sprintf("• Fiber: %.1fg\n", n.Fiber))

	if analysis.Confidence != "" {
		b.WriteString(fmt.Sprintf("\nConfidence: %s\n", analysis.Confidence))
	}
	if analysis.Comment != "" {
		b.WriteString(fmt.Sprintf("\n💭 %s\n", analysis.Comment))
	}

	return b.String()
}

func formatTotals(profile *models.UserProfile, totals models.DailyTotals) string {
	var b strings.Builder
	b.WriteString("📊 Today's totals:\n")
	b.WriteString(fmt.Sprintf("• Calories: %.0f\n", totals.Calories))
	b.WriteString(fmt.Sprintf("• *Protein: %.1fg (%s)* 🎯\n", totals.Protein, proteinShare(totals.Protein, profile)))
	b.WriteString(fmt.Sprintf("• Carbs: %.1fg\n", totals.Carbs))
	b.WriteString(fmt.Sprintf("• Fat: %.1fg\n", totals.Fat))
	b.WriteString(fmt.Sprintf("• Fiber: %.1fg", totals.Fiber))
	return b.String()
}

func formatStats(profile *models.UserProfile, totals models.DailyTotals) string {
	var b strings.Builder
	b.WriteString("📊 *Today's Nutrition Summary*\n\n")
	b.WriteString(fmt.Sprintf("• Calories: %.0f\n", totals.Calories))
	b.WriteString(fmt.Sprintf("• *Protein: %.1fg / %.0fg (%s)* 🎯\n",
		totals.Protein, profile.ProteinGoal, proteinShare(totals.Protein, profile)))
	b.WriteString(fmt.Sprintf("• Carbs: %.1fg\n", totals.Carbs))
	b.WriteString(fmt.Sprintf("• Fat: %.1fg\n", totals.Fat))
	b.WriteString(fmt.Sprintf("• Fiber: %.1fg\n\n", totals.Fiber))

	switch percentage := proteinPercentage(totals.Protein, profile); {
	case percentage >= 100:
		b.WriteString("🎉 Congratulations! You've reached your protein goal!")
	case percentage >= 75:
		b.WriteString("💪 Great progress! You're almost at your protein goal!")
	default:
		b.WriteString(fmt.Sprintf("🎯 You need %.0fg more protein to reach your goal!",
			profile.ProteinGoal-totals.Protein))
	}

	return b.String()
}

func formatProfile(profile *models.UserProfile) string {
	var b strings.Builder
	b.WriteString("👤 Your profile:\n")
	b.WriteString(fmt.Sprintf("• Age: %d\n", profile.Age))
	b.WriteString(fmt.Sprintf("• Weight: %.1f kg\n", profile.WeightKg))
	b.WriteString(fmt.Sprintf("• Height: %.0f cm\n", profile.HeightCm))
	b.WriteString(fmt.Sprintf("• Sex: %s\n", profile.Sex))
	b.WriteString(fmt.Sprintf("• Activity level: %s\n", profile.ActivityLevel))
	b.WriteString(fmt.Sprintf("• Daily protein goal: %.0fg", profile.ProteinGoal))
	return b.String()
}

func proteinPercentage(protein float64, profile *models.UserProfile) float64 {
	if profile.ProteinGoal <= 0 {
		return 0
	}
	return protein / profile.ProteinGoal * 100
}

func proteinShare(protein float64, profile *models.UserProfile) string {
	return fmt.Sprintf("%.0f%% of daily goal", proteinPercentage(protein, profile))
}
