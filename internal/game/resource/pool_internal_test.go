package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/scarlet/internal/game/attribute"
)

func TestPool_CanceledSubscribersAreRemoved(t *testing.T) {
	tbl := attribute.NewTable(nil)
	tbl.SetBaseValue(attribute.Health, 100)
	p := NewPool("health", tbl, Config{Ceiling: attribute.Health})

	var calls []int
	cancels := make([]func(), 0, 3)
	for i := range 3 {
		cancels = append(cancels, p.Subscribe(func(Change) { calls = append(calls, i) }))
	}
	require.Len(t, p.subs, 3)

	cancels[1]()
	cancels[1]()
	assert.Len(t, p.subs, 2)

	p.Set(50)
	assert.Equal(t, []int{0, 2}, calls)

	cancels[0]()
	cancels[2]()
	assert.Empty(t, p.subs)

	for range 100 {
		p.Subscribe(func(Change) {})()
	}
	assert.Empty(t, p.subs)
}
