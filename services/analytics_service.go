package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// windowDays is the trailing analytics window, measured from query time.
const windowDays = 30

// Rough calories per kilogram by category, used to turn consumed mass
// into a caloric timeline. Unknown categories fall back to defaultCaloriesPerKg.
var caloriesPerKg = map[string]float64{
	"Grain":     3500,
	"Vegetable": 250,
	"Fruit":     600,
	"Dairy":     650,
	"Meat":      2500,
	"Seafood":   1200,
	"Legume":    3400,
	"Bakery":    2800,
	"Snack":     4500,
	"Beverage":  400,
}

const defaultCaloriesPerKg = 200

type categoryThreshold struct {
	Min float64
	Max float64
}

// Daily-average caloric thresholds per category. Categories absent here
// are never flagged for imbalance.
var imbalanceThresholds = map[string]categoryThreshold{
	"Grain":     {Min: 200, Max: 1200},
	"Vegetable": {Min: 100, Max: 800},
	"Fruit":     {Min: 80, Max: 600},
	"Dairy":     {Min: 50, Max: 500},
	"Meat":      {Min: 100, Max: 900},
}

type AnalyticsService struct {
	db      *gorm.DB
	logs    *ActionLogService
	gateway Gateway
}

func NewAnalyticsService(db *gorm.DB, logs *ActionLogService, gateway Gateway) *AnalyticsService {
	return &AnalyticsService{db: db, logs: logs, gateway: gateway}
}

// DailyBucket is one calendar day of the caloric timeline. Buckets exist
// for every day of the window whether or not anything was logged.
type DailyBucket struct {
	DateKey            string         `json:"date"`
	DisplayName        string         `json:"label"`
	CaloriesByCategory map[string]int `json:"calories_by_category"`
}

type WastePoint struct {
	DateKey string  `json:"date"`
	Cost    float64 `json:"cost"`
	Grams   float64 `json:"grams"`
}

type TopCategory struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

type ImbalanceFlag struct {
	Category  string  `json:"category"`
	Direction string  `json:"direction"` // "OVER" | "UNDER"
	Amount    float64 `json:"amount"`    // overage or shortfall vs the threshold
}

type WasteForecast struct {
	PredictedCost float64 `json:"predicted_cost"`
	CommunityAvg  float64 `json:"community_avg"`
	Status        string  `json:"status"`
	Advice        string  `json:"advice"`
	Pattern       string  `json:"pattern"`
}

type AnalyticsSummary struct {
	Timeline        []DailyBucket   `json:"timeline"`
	WasteTrend      []WastePoint    `json:"waste_trend"`
	TotalCalories   int             `json:"total_calories"`
	TotalWasteCost  float64         `json:"total_waste_cost"`
	TotalWasteGrams float64         `json:"total_waste_grams"`
	TopCategory     TopCategory     `json:"top_category"`
	GoalProgress    int             `json:"goal_progress"`
	Imbalances      []ImbalanceFlag `json:"imbalances"`
	Forecast        WasteForecast   `json:"forecast"`
}

// Summary walks the trailing 30-day action-log window and produces the
// full analytics payload. A database error is fatal to the request; the
// forecast call is best-effort and can never fail the aggregation.
func (s *AnalyticsService) Summary(ctx context.Context, userID uint, now time.Time) (*AnalyticsSummary, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	household := user.HouseholdSize
	if household < 1 {
		household = 1
	}

	today := dayStart(now)
	out := &AnalyticsSummary{
		Timeline:   make([]DailyBucket, 0, windowDays),
		WasteTrend: make([]WastePoint, 0, windowDays),
	}
	bucketIdx := make(map[string]int, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		bucketIdx[key] = len(out.Timeline)
		out.Timeline = append(out.Timeline, DailyBucket{
			DateKey:            key,
			DisplayName:        d.Format("Jan 2"),
			CaloriesByCategory: map[string]int{},
		})
		out.WasteTrend = append(out.WasteTrend, WastePoint{DateKey: key})
	}

	entries, err := s.logs.Window(ctx, userID, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}

	categoryTotals := map[string]float64{}
	var consumeEvents, wasteEvents int

	for _, e := range entries {
		key := e.CreatedAt.Local().Format("2006-01-02")
		idx, ok := bucketIdx[key]
		if !ok {
			// boundary or clock anomaly; drop silently
			continue
		}

		normalized := e.QuantityChanged
		switch strings.ToLower(e.Unit) {
		case "gram", "milliliter":
			normalized = e.QuantityChanged / 1000 // treat as kg / liters
		}
		// Heuristic mass placeholder for non-weight units; kept as-is
		// for analytics continuity.
		grams := e.QuantityChanged * 100
		switch strings.ToLower(e.Unit) {
		case "gram", "kilogram":
			grams = e.QuantityChanged
		}

		switch e.ActionType {
		case models.ActionConsume:
			consumeEvents++
			factor, ok := caloriesPerKg[e.Category]
			if !ok {
				factor = defaultCaloriesPerKg
			}
			cals := int(math.Round(normalized * factor / float64(household)))
			cat := e.Category
			if cat == "" {
				cat = "Other"
			}
			out.Timeline[idx].CaloriesByCategory[cat] += cals
			categoryTotals[cat] += float64(cals)
			out.TotalCalories += cals

		case models.ActionWaste:
			wasteEvents++
			out.TotalWasteCost += e.Cost
			out.TotalWasteGrams += grams
			out.WasteTrend[idx].Cost += e.Cost
			out.WasteTrend[idx].Grams += grams

		default:
			// ADD and DELETE carry no analytics weight
		}
	}

	out.TopCategory = topCategory(categoryTotals, out.TotalCalories)
	out.GoalProgress = goalProgress(consumeEvents, wasteEvents)
	out.Imbalances = detectImbalances(categoryTotals)
	out.Forecast = s.forecast(ctx, out, len(entries) > 0)

	return out, nil
}

func topCategory(totals map[string]float64, grandTotal int) TopCategory {
	if grandTotal <= 0 || len(totals) == 0 {
		return TopCategory{Name: "N/A", Percentage: 0}
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	top := names[0]
	return TopCategory{
		Name:       top,
		Percentage: int(math.Round(totals[top] / float64(grandTotal) * 100)),
	}
}

func goalProgress(consumeEvents, wasteEvents int) int {
	total := consumeEvents + wasteEvents
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(consumeEvents) / float64(total) * 100))
}

func detectImbalances(totals map[string]float64) []ImbalanceFlag {
	cats := make([]string, 0, len(imbalanceThresholds))
	for c := range imbalanceThresholds {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var flags []ImbalanceFlag
	for _, cat := range cats {
		th := imbalanceThresholds[cat]
		avg := totals[cat] / windowDays
		switch {
		case avg > th.Max:
			flags = append(flags, ImbalanceFlag{Category: cat, Direction: "OVER", Amount: round2(avg - th.Max)})
		case avg < th.Min:
			flags = append(flags, ImbalanceFlag{Category: cat, Direction: "UNDER", Amount: round2(th.Min - avg)})
		}
	}
	return flags
}

const (
	forecastFallbackStatus  = "Insufficient data"
	forecastFallbackPattern = "Not enough history for a pattern yet"
	forecastFallbackAdvice  = "Keep logging what you use and toss; forecasts improve with more history."
)

// forecast asks the gateway for a waste projection. Every failure mode —
// gateway missing, transport error, malformed reply — lands on the same
// deterministic fallback so the summary itself can never fail here.
func (s *AnalyticsService) forecast(ctx context.Context, sum *AnalyticsSummary, hasData bool) WasteForecast {
	fallback := WasteForecast{
		PredictedCost: math.Round(sum.TotalWasteCost * 1.1),
		CommunityAvg:  0,
		Status:        forecastFallbackStatus,
		Advice:        forecastFallbackAdvice,
		Pattern:       forecastFallbackPattern,
	}
	if s.gateway == nil || !s.gateway.Enabled() || !hasData {
		return fallback
	}

	var series strings.Builder
	for _, p := range sum.WasteTrend {
		fmt.Fprintf(&series, "%s: $%.2f\n", p.DateKey, p.Cost)
	}
	imbalanced := make([]string, 0, len(sum.Imbalances))
	for _, f := range sum.Imbalances {
		imbalanced = append(imbalanced, f.Category)
	}

	prompt := fmt.Sprintf(`You are a food-waste analyst. Given this household's daily waste cost over the last 30 days:
%s
Totals: waste cost $%.2f, waste mass %.0f g, calories consumed %d, top category %s, imbalanced categories: %s.
Predict next month's waste cost and compare to a typical household.
Respond with ONLY a JSON object: {"predictedCost": number, "communityAvg": number, "advice": "one short sentence", "pattern": "one short sentence"}`,
		series.String(), sum.TotalWasteCost, sum.TotalWasteGrams, sum.TotalCalories,
		sum.TopCategory.Name, strings.Join(imbalanced, ", "))

	raw, err := s.gateway.Generate(ctx, prompt, nil)
	if err != nil {
		logrus.WithError(err).Warn("waste forecast unavailable, using fallback")
		return fallback
	}

	var parsed struct {
		PredictedCost float64 `json:"predictedCost"`
		CommunityAvg  float64 `json:"communityAvg"`
		Advice        string  `json:"advice"`
		Pattern       string  `json:"pattern"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		logrus.WithError(err).Warn("waste forecast unparsable, using fallback")
		return fallback
	}

	status := "Good"
	if parsed.PredictedCost > parsed.CommunityAvg {
		status = "High"
	}
	return WasteForecast{
		PredictedCost: parsed.PredictedCost,
		CommunityAvg:  parsed.CommunityAvg,
		Status:        status,
		Advice:        parsed.Advice,
		Pattern:       parsed.Pattern,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
