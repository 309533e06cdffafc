package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForKnownTiers(t *testing.T) {
	starter := LimitsFor(PlanStarter)
	assert.Equal(t, 5, starter.MaxClients)
	assert.False(t, starter.VoiceMessages)
	assert.False(t, starter.NutritionTrack)

	pro := LimitsFor(PlanPro)
	assert.Equal(t, 25, pro.MaxClients)
	assert.True(t, pro.VoiceMessages)

	elite := LimitsFor(PlanElite)
	assert.Equal(t, Unlimited, elite.MaxClients)
	assert.Equal(t, Unlimited, elite.MaxWorkouts)
}

func TestLimitsForUnknownTierFallsBackToStarter(t *testing.T) {
	limits := LimitsFor(PlanKey("enterprise"))
	assert.Equal(t, LimitsFor(PlanStarter), limits)
}

func TestAllows(t *testing.T) {
	limits := LimitsFor(PlanStarter)
	assert.True(t, limits.Allows(limits.MaxClients, 4))
	assert.False(t, limits.Allows(limits.MaxClients, 5))
	assert.False(t, limits.Allows(limits.MaxClients, 6))
	assert.True(t, limits.Allows(Unlimited, 1_000_000))
}
