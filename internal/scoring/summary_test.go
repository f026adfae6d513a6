package scoring

import (
	"testing"

	"github.com/jonathan/pose-coach/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	config := types.PoseConfig{kneeRule(180, 10)}
	reports := []*Report{
		Evaluate(standingKeypoints(0.1, 180), config), // not framed
		Evaluate(standingKeypoints(0.9, 140), config), // ~33.33, low
		Evaluate(standingKeypoints(0.9, 178), config), // 100, good
		nil,
		Evaluate(standingKeypoints(0.9, 150), config), // ~77.78, low
	}

	s := Summarize(reports)

	assert.Equal(t, 5, s.Frames)
	assert.Equal(t, 3, s.Framed)
	assert.Equal(t, 3, s.Scored)
	assert.Equal(t, 2, s.BestFrame)
	assert.Equal(t, 100.0, s.BestAccuracy)
	assert.InDelta(t, (100*(1-30.0/45)+100+100*(1-20.0/45))/3, s.MeanAccuracy, 1e-6)

	assert.Equal(t, []FeedbackCount{
		{Message: lowText, Count: 2},
		{Message: FeedbackNotFramed, Count: 1},
		{Message: goodText, Count: 1},
	}, s.Feedback)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Frames)
	assert.Equal(t, -1, s.BestFrame)
	assert.Equal(t, 0.0, s.MeanAccuracy)
	assert.Empty(t, s.Feedback)
}
