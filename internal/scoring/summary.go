package scoring

import "sort"

// Summary aggregates the reports of a frame sequence.
type Summary struct {
	Frames int `json:"frames"`
	// Framed counts frames that passed the framing gate.
	Framed int `json:"framed"`
	// Scored counts frames where at least one rule applied.
	Scored       int     `json:"scored"`
	MeanAccuracy float64 `json:"mean_accuracy"`
	BestAccuracy float64 `json:"best_accuracy"`
	// BestFrame is the position of the best scored frame, or -1.
	BestFrame int `json:"best_frame"`
	// Feedback counts each message across all frames, most frequent first.
	Feedback []FeedbackCount `json:"feedback,omitempty"`
}

// FeedbackCount is how often a feedback message was emitted.
type FeedbackCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Summarize aggregates reports in order. Nil reports count as unframed frames.
func Summarize(reports []*Report) Summary {
	s := Summary{Frames: len(reports), BestFrame: -1}

	counts := map[string]int{}
	var order []string
	total := 0.0
	for i, r := range reports {
		if r == nil {
			continue
		}
		if r.Framed {
			s.Framed++
		}
		if r.RulesApplied > 0 {
			s.Scored++
			total += r.Accuracy
			if s.BestFrame < 0 || r.Accuracy > s.BestAccuracy {
				s.BestAccuracy = r.Accuracy
				s.BestFrame = i
			}
		}
		for _, msg := range r.Feedback {
			if counts[msg] == 0 {
				order = append(order, msg)
			}
			counts[msg]++
		}
	}

	if s.Scored > 0 {
		s.MeanAccuracy = clampAccuracy(total / float64(s.Scored))
	}

	for _, msg := range order {
		s.Feedback = append(s.Feedback, FeedbackCount{Message: msg, Count: counts[msg]})
	}
	// Stable keeps first-seen order among ties.
	sort.SliceStable(s.Feedback, func(i, j int) bool {
		return s.Feedback[i].Count > s.Feedback[j].Count
	})

	return s
}
