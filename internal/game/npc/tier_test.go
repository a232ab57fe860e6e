package npc_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelpanto/internal/game/npc"
)

func TestLoadTiers_DefaultsFillMissingFields(t *testing.T) {
	data := []byte(`
tiers:
  - id: rookie
`)
	tiers, err := npc.LoadTiersFromBytes(data)
	require.NoError(t, err)
	require.Len(t, tiers, 1)

	want := npc.DefaultTier()
	want.ID = "rookie"
	want.Name = "rookie"
	assert.Equal(t, want, tiers[0])
}

func TestLoadTiers_PreservesOrderAndOverrides(t *testing.T) {
	data := []byte(`
tiers:
  - id: rookie
    name: Rookie
    max_health: 60
    field_of_view: 25
    time_before_search: 3s
    returns_fire: false
  - id: veteran
    aim: true
    turn_rate: 12
    attack_at_start: false
`)
	tiers, err := npc.LoadTiersFromBytes(data)
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	assert.Equal(t, "rookie", tiers[0].ID)
	assert.Equal(t, "Rookie", tiers[0].Name)
	assert.Equal(t, 60, tiers[0].MaxHealth)
	assert.Equal(t, 25.0, tiers[0].FieldOfView)
	assert.Equal(t, 3*time.Second, tiers[0].TimeBeforeSearch)
	assert.False(t, tiers[0].ReturnsFire)
	assert.Equal(t, npc.ModeSentinel, tiers[0].Mode())

	assert.Equal(t, npc.ModePursuit, tiers[1].Mode())
	assert.Equal(t, 12.0, tiers[1].TurnRate)
	assert.False(t, tiers[1].AttackAtStart)
}

func TestLoadTiers_Empty(t *testing.T) {
	_, err := npc.LoadTiersFromBytes([]byte("tiers: []\n"))
	assert.Error(t, err)
}

func TestLoadTiers_DuplicateID(t *testing.T) {
	_, err := npc.LoadTiersFromBytes([]byte(`
tiers:
  - id: a
  - id: a
`))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadTiers_InvalidDuration(t *testing.T) {
	_, err := npc.LoadTiersFromBytes([]byte(`
tiers:
  - id: a
    time_before_search: soon
`))
	assert.Error(t, err)
}

func TestTier_Validate_ReportsEveryViolation(t *testing.T) {
	tier := npc.DefaultTier()
	tier.MaxHealth = 0
	tier.FieldOfView = 200
	err := tier.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_health")
	assert.Contains(t, err.Error(), "field_of_view")
}

func TestLoadTiersFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  - id: only\n"), 0644))

	tiers, err := npc.LoadTiersFromFile(path)
	require.NoError(t, err)
	assert.Len(t, tiers, 1)

	_, err = npc.LoadTiersFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "sentinel", npc.ModeSentinel.String())
	assert.Equal(t, "pursuit", npc.ModePursuit.String())
	assert.Equal(t, "unknown", npc.Mode(9).String())
}

func TestProperty_Tier_ValidFieldOfViewAccepted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fov := rapid.Float64Range(0.5, 180).Draw(rt, "fov")
		hp := rapid.IntRange(1, 1000).Draw(rt, "hp")
		data := []byte(fmt.Sprintf("tiers:\n  - id: t\n    field_of_view: %v\n    max_health: %d\n", fov, hp))
		tiers, err := npc.LoadTiersFromBytes(data)
		require.NoError(rt, err)
		assert.Equal(rt, hp, tiers[0].MaxHealth)
	})
}
