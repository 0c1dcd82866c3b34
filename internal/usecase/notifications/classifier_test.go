package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/domain"
)

func spec(icon string) domain.NotificationSpec { return domain.NotificationSpec{Icon: icon} }

func TestClassify_DefaultTable(t *testing.T) {
	c := NewClassifier(DefaultAlertConfig().Bits)

	cases := []struct {
		amount int64
		icon   string
	}{
		{100000, "bits-100000.gif"},
		{250000, "bits-100000.gif"},
		{99999, "bits-10000.gif"},
		{5000, "bits-5000.gif"},
		{999, "bits-100.gif"},
		{100, "bits-100.gif"},
		{99, "bits-1.gif"},
		{1, "bits-1.gif"},
	}
	for _, tc := range cases {
		got, ok := c.Classify(tc.amount)
		require.True(t, ok, tc.amount)
		assert.Equal(t, tc.icon, got.Icon, tc.amount)
	}
}

func TestClassify_NonPositiveAmount(t *testing.T) {
	c := NewClassifier(DefaultAlertConfig().Bits)
	for _, amount := range []int64{0, -5} {
		_, ok := c.Classify(amount)
		assert.False(t, ok, amount)
	}
}

func TestClassify_BelowLowestThresholdUsesFloor(t *testing.T) {
	c := NewClassifier([]domain.TierBucket{{Threshold: 500, Spec: spec("low")}, {Threshold: 1000, Spec: spec("high")}})

	got, ok := c.Classify(10)
	require.True(t, ok)
	assert.Equal(t, "low", got.Icon)

	got, _ = c.Classify(1500)
	assert.Equal(t, "high", got.Icon)
}

func TestClassify_EmptyTable(t *testing.T) {
	_, ok := NewClassifier(nil).Classify(100)
	assert.False(t, ok)

	var nilClassifier *Classifier
	_, ok = nilClassifier.Classify(100)
	assert.False(t, ok)
}

func TestNewClassifier_SortsDescending(t *testing.T) {
	c := NewClassifier([]domain.TierBucket{{Threshold: 1}, {Threshold: 100}, {Threshold: 0}, {Threshold: 10}})
	table := c.Table()
	require.Len(t, table, 3)
	assert.EqualValues(t, []int64{100, 10, 1}, []int64{table[0].Threshold, table[1].Threshold, table[2].Threshold})
}
