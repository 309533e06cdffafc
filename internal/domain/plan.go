package domain

// PlanKey identifies a subscription tier.
type PlanKey string

const (
	PlanStarter PlanKey = "starter"
	PlanPro     PlanKey = "pro"
	PlanElite   PlanKey = "elite"
)

// Unlimited marks a ceiling that is not enforced.
const Unlimited = -1

// PlanLimits is the immutable, code-defined ceiling set for one tier. It is
// not stored per user except as the snapshot copied onto Profile at
// subscription time.
type PlanLimits struct {
	MaxClients     int  `json:"max_clients"`
	TimelineWeeks  int  `json:"timeline_weeks"`
	MaxWorkouts    int  `json:"max_workouts"`
	MaxExercises   int  `json:"max_exercises"`
	VoiceMessages  bool `json:"voice_messages"`
	NutritionTrack bool `json:"nutrition_tracking"`
	WeeklyFeedback bool `json:"weekly_feedback"`
}

var planLimits = map[PlanKey]PlanLimits{
	PlanStarter: {
		MaxClients:     5,
		TimelineWeeks:  4,
		MaxWorkouts:    20,
		MaxExercises:   100,
		VoiceMessages:  false,
		NutritionTrack: false,
		WeeklyFeedback: true,
	},
	PlanPro: {
		MaxClients:     25,
		TimelineWeeks:  12,
		MaxWorkouts:    100,
		MaxExercises:   Unlimited,
		VoiceMessages:  true,
		NutritionTrack: true,
		WeeklyFeedback: true,
	},
	PlanElite: {
		MaxClients:     Unlimited,
		TimelineWeeks:  52,
		MaxWorkouts:    Unlimited,
		MaxExercises:   Unlimited,
		VoiceMessages:  true,
		NutritionTrack: true,
		WeeklyFeedback: true,
	},
}

// LimitsFor returns the ceilings for a tier. Unknown tiers get the starter
// limits so a bad plan key never unlocks everything.
func LimitsFor(plan PlanKey) PlanLimits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits[PlanStarter]
}

// Allows reports whether a count is under the ceiling.
func (l PlanLimits) Allows(ceiling, current int) bool {
	if ceiling == Unlimited {
		return true
	}
	return current < ceiling
}
