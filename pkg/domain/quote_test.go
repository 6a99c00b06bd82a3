package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuote(t *testing.T) {
	svc := &Service{
		ID:    "deep-clean",
		Price: 100,
		Options: []ServiceOption{
			{ID: "rooms", Name: "Extra rooms", Type: OptionNumber, PriceImpact: 15, ImpactType: ImpactFixed},
			{ID: "oven", Name: "Oven", Type: OptionCheckbox, PriceImpact: 10, ImpactType: ImpactPercentage},
			{ID: "notes", Name: "Notes", Type: OptionText},
		},
	}

	t.Run("no options selected", func(t *testing.T) {
		q := NewQuote(svc, nil)
		assert.Equal(t, 100.0, q.Total)
		assert.Empty(t, q.Lines)
	})

	t.Run("fixed per unit and percentage", func(t *testing.T) {
		q := NewQuote(svc, map[FieldKey]FieldState{
			OptionField("rooms"): {Value: "2"},
			OptionField("oven"):  {Value: "1"},
			OptionField("notes"): {Value: "ring twice"},
		})
		assert.Equal(t, []QuoteLine{
			{OptionID: "rooms", Name: "Extra rooms", Amount: 30},
			{OptionID: "oven", Name: "Oven", Amount: 10},
		}, q.Lines)
		assert.Equal(t, 140.0, q.Total)
	})

	t.Run("non-finite units are ignored", func(t *testing.T) {
		for _, v := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
			q := NewQuote(svc, map[FieldKey]FieldState{OptionField("rooms"): {Value: v}})
			assert.Empty(t, q.Lines, v)
			assert.Equal(t, 100.0, q.Total, v)

			_, err := json.Marshal(q)
			assert.NoError(t, err, v)
		}
	})

	t.Run("nil service", func(t *testing.T) {
		assert.Equal(t, Quote{}, NewQuote(nil, nil))
	})
}
