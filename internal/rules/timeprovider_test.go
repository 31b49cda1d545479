package rules

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nleeper/goment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schneison/unima/internal/core/domain"
)

func TestTimeProvider_PlainDate(t *testing.T) {
	p := &TimeProvider{Value: "2021/10/18", Format: "YYYY-MM-DD"}

	value, err := ResolveProvider(p, NewContext("m"), NewSession())

	require.NoError(t, err)
	assert.Equal(t, "2021-10-18", value)
}

func TestTimeProvider_DurationSteps(t *testing.T) {
	ctx := NewContext("m")
	ctx.Tags["week"] = "3"
	p := &TimeProvider{
		Value:          "2021/10/18",
		Format:         "DD.MM.YYYY",
		Duration:       &Duration{Days: 7},
		DurationOffset: intPtr(1),
		DurationTag:    "week",
	}

	value, err := ResolveProvider(p, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "01.11.2021", value)
}

func TestTimeProvider_ZeroOffsetDoesNotStep(t *testing.T) {
	ctx := NewContext("m")
	ctx.Tags["week"] = "3"
	p := &TimeProvider{
		Value:          "2021/10/18",
		Format:         "DD.MM.YYYY",
		Duration:       &Duration{Days: 7},
		DurationOffset: intPtr(0),
		DurationTag:    "week",
	}

	value, err := ResolveProvider(p, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "18.10.2021", value)
}

func TestTimeProvider_MonthSteps(t *testing.T) {
	ctx := NewContext("m")
	ctx.Tags["term"] = "2"
	p := &TimeProvider{
		Value:          "2021/10/01",
		Format:         "YYYY-MM",
		Duration:       &Duration{Months: 6},
		DurationOffset: intPtr(1),
		DurationTag:    "term",
	}

	value, err := ResolveProvider(p, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "2022-04", value)
}

func TestTimeProvider_NonNumericTagDoesNotStep(t *testing.T) {
	ctx := NewContext("m")
	ctx.Tags["week"] = "n/a"
	p := &TimeProvider{
		Value:          "2021/10/18",
		Format:         "DD.MM.YYYY",
		Duration:       &Duration{Days: 7},
		DurationOffset: intPtr(1),
		DurationTag:    "week",
	}

	value, err := ResolveProvider(p, ctx, NewSession())

	require.NoError(t, err)
	assert.Equal(t, "18.10.2021", value)
}

func TestTimeProvider_InvalidDate(t *testing.T) {
	_, err := ResolveProvider(&TimeProvider{Value: "18.10.2021"}, NewContext("m"), NewSession())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected Duration
	}{
		{"P7D", Duration{Days: 7}},
		{"P1W", Duration{Days: 7}},
		{"P1Y2M3D", Duration{Years: 1, Months: 2, Days: 3}},
		{"PT1H30M", Duration{Clock: 90 * time.Minute}},
		{"PT1.5S", Duration{Clock: 1500 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}

	_, err := ParseDuration("seven days")
	assert.Error(t, err)
}

func TestDuration_UnmarshalMilliseconds(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte("86400000"), &d))

	assert.Equal(t, Duration{Clock: 24 * time.Hour}, d)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2022, time.March, 1, 14, 5, 9, 0, time.UTC)
	g, err := goment.New(ts)
	require.NoError(t, err)

	tests := []struct {
		layout   string
		expected string
	}{
		{"YYYY/MM/DD", "2022/03/01"},
		{"D.M.YY", "1.3.22"},
		{"dddd, Do MMMM", "Tuesday, 1st March"},
		{"[Week] W", "Week 9"},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(g, tt.layout))
		})
	}
}

func TestLeadingInt(t *testing.T) {
	n, ok := leadingInt("12abc")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = leadingInt(" -3")
	assert.True(t, ok)
	assert.Equal(t, -3, n)

	_, ok = leadingInt("abc")
	assert.False(t, ok)
}
