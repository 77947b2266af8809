package timestamp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the simulated run start used across tests
var fixedNow = time.Date(2022, time.July, 2, 15, 0, 0, 0, time.UTC)

func TestNormalize_RecognizedShapes(t *testing.T) {
	n := NewNormalizer(fixedNow, "")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"now sentinel", "now", "07/02/2022, 15:00:00"},
		{"now with padding", "  Now ", "07/02/2022, 15:00:00"},
		{"minutes ago", "12m", "07/02/2022, 14:48:00"},
		{"five minutes ago", "5m", "07/02/2022, 14:55:00"},
		{"zero minutes ago", "0m", "07/02/2022, 15:00:00"},
		{"clock single digit hour", "3:45 PM", "07/02/2022, 15:45:00"},
		{"clock two digit hour", "11:05 AM", "07/02/2022, 11:05:00"},
		{"clock zero padded hour", "03:45 PM", "07/02/2022, 15:45:00"},
		{"clock lowercase meridiem", "9:15 am", "07/02/2022, 09:15:00"},
		{"clock noon", "12:00 PM", "07/02/2022, 12:00:00"},
		{"clock midnight", "12:30 AM", "07/02/2022, 00:30:00"},
		{"full locale", "07/02/22, 3:45 PM", "07/02/2022, 15:45:00"},
		{"full locale unpadded", "7/2/22, 3:45 PM", "07/02/2022, 15:45:00"},
		{"full locale last day of year", "12/31/21, 11:59 PM", "12/31/2021, 23:59:00"},
		{"full locale first day of year", "01/01/22, 12:01 AM", "01/01/2022, 00:01:00"},
		{"long form with zone", "July 2, 2022 3:45 PM ET", "07/02/2022, 15:45:00"},
		{"long form without zone", "December 31, 2021 10:00 AM", "12/31/2021, 10:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Unresolved(t *testing.T) {
	n := NewNormalizer(fixedNow, "")

	tests := []struct {
		name      string
		raw       string
		wantShape Shape
	}{
		{"empty string", "", ShapeNone},
		{"whitespace", "   ", ShapeNone},
		{"garbage", "yesterday-ish", ShapeNone},
		{"hours suffix", "2h", ShapeNone},
		{"negative minutes", "-5m", ShapeMinutesAgo},
		{"overflowing minutes", "99999999999999999999m", ShapeMinutesAgo},
		{"minutes beyond duration range", "9999999999m", ShapeMinutesAgo},
		{"minutes just beyond duration range", "153722868m", ShapeMinutesAgo},
		{"clock hour out of range", "13:45 PM", ShapeClock},
		{"clock minute out of range", "3:75 PM", ShapeClock},
		{"locale month out of range", "13/02/22, 3:45 PM", ShapeLocale},
		{"locale day out of range", "02/30/22, 3:45 PM", ShapeLocale},
		{"long form bad month", "Julember 2, 2022 3:45 PM ET", ShapeLongForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, ErrUnresolved))

			var unresolved *UnresolvedError
			require.True(t, errors.As(err, &unresolved))
			assert.Equal(t, tt.wantShape, unresolved.Shape)
			assert.Equal(t, tt.raw, unresolved.Raw)
		})
	}
}

func TestNormalize_MinutesAgoCrossesYearBoundary(t *testing.T) {
	newYear := time.Date(2023, time.January, 1, 0, 5, 0, 0, time.UTC)
	n := NewNormalizer(newYear, "")

	got, err := n.Normalize("10m")
	require.NoError(t, err)
	assert.Equal(t, "12/31/2022, 23:55:00", got)
}

func TestResolve_LargestMinutesAgoIsInThePast(t *testing.T) {
	n := NewNormalizer(fixedNow, "")

	got, err := n.Resolve("153722867m")
	require.NoError(t, err)
	assert.True(t, got.Before(fixedNow))
	assert.Equal(t, fixedNow.Add(-153722867*time.Minute), got)
}

func TestNormalize_ClockUsesReferenceDate(t *testing.T) {
	newYearsEve := time.Date(2021, time.December, 31, 23, 0, 0, 0, time.UTC)
	n := NewNormalizer(newYearsEve, "")

	got, err := n.Normalize("1:00 AM")
	require.NoError(t, err)
	assert.Equal(t, "12/31/2021, 01:00:00", got)
}

func TestNormalize_IsDeterministic(t *testing.T) {
	n := NewNormalizer(fixedNow, "")

	for _, raw := range []string{"now", "12m", "3:45 PM", "07/02/22, 3:45 PM"} {
		first, err := n.Normalize(raw)
		require.NoError(t, err)
		second, err := n.Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, first, second, raw)
	}
}

func TestNormalize_CustomLayout(t *testing.T) {
	n := NewNormalizer(fixedNow, time.RFC3339)

	got, err := n.Normalize("07/02/22, 3:45 PM")
	require.NoError(t, err)
	assert.Equal(t, "2022-07-02T15:45:00Z", got)
}
