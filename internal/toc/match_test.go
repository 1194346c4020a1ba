package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "NON FUNCTIONAL REQUIREMENT", Normalize("non_functional_requirement"))
	assert.Equal(t, "PLAN PVT", Normalize("  Plan   PVT "))
}

func TestMentions(t *testing.T) {
	assert.True(t, Mentions("3 PLAN PVT", "PLAN_PVT"))
	assert.True(t, Mentions("1.1 overview", "OVERVIEW"))
	assert.False(t, Mentions("BACKGROUND", "INTRODUCTION"))
	assert.False(t, Mentions("BACKGROUND", ""))
}

func TestLabels(t *testing.T) {
	raw := "TABLE OF CONTENT\n1 INTRODUCTION ....... 3\n1.1. Overview ....... 3\nBACKGROUND..........5\n\n"
	assert.Equal(t, []string{"TABLE OF CONTENT", "INTRODUCTION", "OVERVIEW", "BACKGROUND"}, Labels(raw))
}

func TestMissing(t *testing.T) {
	raw := "1 INTRODUCTION ....... 3\n2 SCOPE ....... 4\n"

	assert.Empty(t, Missing(raw, []string{"INTRODUCTION", "SCOPE"}))
	assert.Equal(t, []string{"PLAN_PVT"}, Missing(raw, []string{"INTRODUCTION", "PLAN_PVT", "SCOPE"}))
}

func TestMissing_RequiresWholeLabel(t *testing.T) {
	raw := "NON FUNCTIONAL REQUIREMENT ....... 9\n"
	assert.Equal(t, []string{"FUNCTIONAL_REQUIREMENT"}, Missing(raw, []string{"FUNCTIONAL_REQUIREMENT", "NON_FUNCTIONAL_REQUIREMENT"}))
}
