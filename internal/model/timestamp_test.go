package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhartmann/worklog/internal/model"
)

func TestTimestampFromString(t *testing.T) {
	ts, err := model.TimestampFromString("09:05")
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp{Hour: 9, Minute: 5}, ts)

	ts, err = model.TimestampFromString("23:59")
	require.NoError(t, err)
	assert.Equal(t, model.Timestamp{Hour: 23, Minute: 59}, ts)

	for _, invalid := range []string{"", "9:05", "09:5", "09-05", "24:00", "12:60", "ab:cd", "09:05:30"} {
		_, err := model.TimestampFromString(invalid)
		assert.Error(t, err, "input '%s'", invalid)
	}
}

func TestTimestampOrdering(t *testing.T) {
	a := model.Timestamp{Hour: 9, Minute: 0}
	b := model.Timestamp{Hour: 9, Minute: 30}

	assert.True(t, a.IsBefore(b))
	assert.False(t, a.IsAfter(b))
	assert.True(t, b.IsAfter(a))
	assert.False(t, a.IsBefore(a))
	assert.False(t, a.IsAfter(a))
}

func TestTimestampToString(t *testing.T) {
	assert.Equal(t, "07:08", model.Timestamp{Hour: 7, Minute: 8}.ToString())
	assert.Equal(t, "17:30", model.Timestamp{Hour: 17, Minute: 30}.ToString())
}

func TestTimestampFromGotime(t *testing.T) {
	ts := model.TimestampFromGotime(time.Date(2026, 3, 2, 14, 45, 59, 0, time.Local))
	assert.Equal(t, model.Timestamp{Hour: 14, Minute: 45}, ts)
}

func TestDurationInMinutesUntil(t *testing.T) {
	a := model.Timestamp{Hour: 9, Minute: 15}
	b := model.Timestamp{Hour: 10, Minute: 0}
	assert.Equal(t, 45, a.DurationInMinutesUntil(b))
}
