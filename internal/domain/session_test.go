package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepOrder(t *testing.T) {
	var visited []Step
	step := StepName
	for {
		visited = append(visited, step)
		next, ok := step.Next()
		if !ok {
			break
		}
		step = next
	}
	assert.Equal(t, Steps(), visited)
	assert.Equal(t, 1, StepName.Index())
	assert.Equal(t, 7, StepDescription.Index())
	assert.Equal(t, 0, Step("email").Index())
}

func TestSessionReset(t *testing.T) {
	s := NewSession("9999999999", time.Now())
	s.State = StateCollectingComplaint
	s.Step = StepWard
	s.Draft.Name = "Ravi"

	s.Reset()

	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.Step)
	assert.Equal(t, ComplaintDraft{}, s.Draft)
	assert.Equal(t, "9999999999", s.Identity)
}
