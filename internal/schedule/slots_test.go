package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clinicware/clinic-booking/internal/clinic"
)

func window(id int64, start string, minutes int) clinic.Availability {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	return clinic.Availability{
		ID:             id,
		PractitionerID: 1,
		Start:          t,
		End:            t.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestDeriveDays(t *testing.T) {
	tests := []struct {
		name    string
		windows []clinic.Availability
		want    []string
	}{
		{
			name:    "no windows",
			windows: nil,
			want:    nil,
		},
		{
			name: "single day deduplicated",
			windows: []clinic.Availability{
				window(1, "2024-01-10T09:00:00Z", 30),
				window(2, "2024-01-10T10:00:00Z", 30),
			},
			want: []string{"2024-01-10"},
		},
		{
			name: "multiple days in first-seen order",
			windows: []clinic.Availability{
				window(1, "2024-01-12T09:00:00Z", 30),
				window(2, "2024-01-10T09:00:00Z", 30),
				window(3, "2024-01-12T10:00:00Z", 30),
				window(4, "2024-01-11T09:00:00Z", 30),
			},
			want: []string{"2024-01-12", "2024-01-10", "2024-01-11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDays(tt.windows))
		})
	}
}

func TestSlotsForDay(t *testing.T) {
	windows := []clinic.Availability{
		window(1, "2024-01-10T09:00:00Z", 30),
		window(2, "2024-01-11T09:00:00Z", 30),
		window(3, "2024-01-10T10:00:00Z", 30),
	}

	t.Run("filters by day preserving order", func(t *testing.T) {
		slots := SlotsForDay(windows, "2024-01-10")
		assert.Len(t, slots, 2)
		assert.Equal(t, int64(1), slots[0].ID)
		assert.Equal(t, int64(3), slots[1].ID)
	})

	t.Run("no matching windows yields empty", func(t *testing.T) {
		assert.Empty(t, SlotsForDay(windows, "2024-02-01"))
	})

	t.Run("empty day yields empty", func(t *testing.T) {
		assert.Empty(t, SlotsForDay(windows, ""))
	})

	t.Run("empty windows yields empty", func(t *testing.T) {
		assert.Empty(t, SlotsForDay(nil, "2024-01-10"))
	})
}

func TestDayOf(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2024-01-10T23:30:00Z")
	assert.Equal(t, "2024-01-10", DayOf(start))
}
