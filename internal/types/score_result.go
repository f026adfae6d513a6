package types

// ScoreResult is the per-frame outcome of scoring a pose: advisory feedback
// text plus an accuracy percentage in [0, 100].
type ScoreResult struct {
	Feedback []string `json:"feedback"`
	Accuracy float64  `json:"accuracy"`
}

// Frame is one keypoint detection delivered by an external detector.
type Frame struct {
	Index       int         `json:"frame"`
	TimestampMS int64       `json:"timestamp_ms,omitempty"`
	Keypoints   KeypointSet `json:"keypoints"`
}

// FrameResult pairs a frame index with its score.
type FrameResult struct {
	Frame       int    `json:"frame"`
	TimestampMS int64  `json:"timestamp_ms,omitempty"`
	Image       string `json:"image,omitempty"`
	ScoreResult
}
