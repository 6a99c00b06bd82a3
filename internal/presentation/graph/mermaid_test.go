package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/bookflow/internal/presentation/graph"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	steps := registry.BookingSteps()
	got := graph.GenerateMermaid(steps, nil)

	for _, want := range []string{
		"graph TD\n",
		`area_check{{"1. area-check"}}`,
		`service["2. service"]`,
		`pets{{"4. pets"}}`,
		`review(("8. review"))`,
		"area_check --> service",
		"options --> pets",
		`options -. "skip" .-> frequency`,
		`options -. "skip" .-> schedule`,
		`options -. "skip" .-> customer`,
		`frequency -. "skip" .-> customer`,
		"customer --> review",
	} {
		assert.Contains(t, got, want)
	}

	assert.NotContains(t, got, "service -. \"skip\"", "service is never hidden, so nothing skips from before it past it")
	assert.NotContains(t, got, "Overlay Styles")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	steps := registry.BookingSteps()
	got := graph.GenerateMermaid(steps, &graph.GraphOverlay{
		Visited: []domain.StepID{domain.StepService, domain.StepOptions, domain.StepService, domain.StepOptions},
		Current: domain.StepCustomer,
		Hidden:  []domain.StepID{domain.StepAreaCheck, domain.StepSchedule},
	})

	assert.Equal(t, 1, strings.Count(got, "class service visited;"), "visited steps are deduplicated")
	assert.Contains(t, got, "class options visited;")
	assert.Contains(t, got, "class area_check hidden;")
	assert.Contains(t, got, "class schedule hidden;")
	assert.Contains(t, got, "class customer current;")
	assert.NotContains(t, got, "class customer visited;")
}
