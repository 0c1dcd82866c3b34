package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierFromPlan(t *testing.T) {
	assert.Equal(t, 1, TierFromPlan("1000"))
	assert.Equal(t, 2, TierFromPlan("2000"))
	assert.Equal(t, 3, TierFromPlan("3000"))
	assert.Equal(t, 3, TierFromPlan("3012"))
	assert.Equal(t, 1, TierFromPlan("Prime"))
}

func TestRuleKeys(t *testing.T) {
	r := &Rule{Name: " !Death ", Aliases: []string{"!d", "!DEATH", ""}}
	assert.Equal(t, []string{"!death", "!d"}, r.Keys())
	assert.Nil(t, (*Rule)(nil).Keys())
}

func TestCooldownWindow(t *testing.T) {
	assert.Zero(t, Cooldown{}.Window())

	zero := 0
	assert.Zero(t, Cooldown{Seconds: &zero, DelaySeconds: 3, LifetimeSeconds: 8}.Window())

	secs := 10
	c := Cooldown{Seconds: &secs, DelaySeconds: 2}
	assert.Equal(t, 42*time.Second, c.Window())

	c.LifetimeSeconds = 5
	assert.Equal(t, 17*time.Second, c.Window())
}
