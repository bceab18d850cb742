package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koinonia.church/koinonia/membership/v1/common"
)

func TestSelectEvent(t *testing.T) {
	one := common.EventDTO{ID: "e1", Name: "Sunday Service", IsActive: true}
	two := common.EventDTO{ID: "e2", Name: "Youth Night", IsActive: true}
	inactive := common.EventDTO{ID: "e3", Name: "Past Retreat", IsActive: false}

	t.Run("none active", func(t *testing.T) {
		_, err := SelectEvent([]common.EventDTO{inactive}, "")
		assert.ErrorIs(t, err, ErrNoActiveEvent)
	})

	t.Run("single active auto-selected", func(t *testing.T) {
		got, err := SelectEvent([]common.EventDTO{one, inactive}, "")
		require.NoError(t, err)
		assert.Equal(t, "e1", got.ID)
	})

	t.Run("multiple active require a choice", func(t *testing.T) {
		_, err := SelectEvent([]common.EventDTO{one, two}, "")
		assert.ErrorIs(t, err, ErrEventChoiceRequired)
	})

	t.Run("explicit choice honored", func(t *testing.T) {
		got, err := SelectEvent([]common.EventDTO{one, two}, "e2")
		require.NoError(t, err)
		assert.Equal(t, "e2", got.ID)
	})

	t.Run("explicit choice must be active", func(t *testing.T) {
		_, err := SelectEvent([]common.EventDTO{one, inactive}, "e3")
		assert.ErrorIs(t, err, ErrNoActiveEvent)
	})
}
