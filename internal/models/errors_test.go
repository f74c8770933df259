package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundSentinels(t *testing.T) {
	for _, err := range []error{ErrMealNotFound, ErrFoodNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, errors.Wrap(err, "failed to delete"), ErrNotFound)
	}
	assert.NotErrorIs(t, ErrMealNotFound, ErrFoodNotFound)
	assert.Equal(t, "meal: not found", ErrMealNotFound.Error())
}
