// Package types provides type definitions for structured data used throughout the pose-coach system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Landmark is a positional index into a KeypointSet. Indices follow the
// 33-point BlazePose landmark schema emitted by MediaPipe pose detectors.
type Landmark int

// Landmark indices of the BlazePose schema.
const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// LandmarkCount is the number of landmarks in a full KeypointSet.
const LandmarkCount = 33

var landmarkNames = [LandmarkCount]string{
	"nose",
	"left_eye_inner",
	"left_eye",
	"left_eye_outer",
	"right_eye_inner",
	"right_eye",
	"right_eye_outer",
	"left_ear",
	"right_ear",
	"mouth_left",
	"mouth_right",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_pinky",
	"right_pinky",
	"left_index",
	"right_index",
	"left_thumb",
	"right_thumb",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
	"left_heel",
	"right_heel",
	"left_foot_index",
	"right_foot_index",
}

// Valid reports whether l addresses a landmark of the schema.
func (l Landmark) Valid() bool {
	return l >= 0 && l < LandmarkCount
}

// String returns the snake_case landmark name, or the raw index for
// values outside the schema.
func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// LandmarkNames returns the landmark names in index order.
func LandmarkNames() []string {
	names := make([]string, LandmarkCount)
	copy(names, landmarkNames[:])
	return names
}

// ParseLandmark resolves a landmark name. Matching ignores case and
// accepts spaces or hyphens in place of underscores ("Left Knee").
func ParseLandmark(name string) (Landmark, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for i, n := range landmarkNames {
		if n == normalized {
			return Landmark(i), nil
		}
	}
	return 0, fmt.Errorf("unknown landmark %q", name)
}

// MarshalJSON encodes the landmark as its numeric index.
func (l Landmark) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(l))), nil
}

// UnmarshalJSON accepts either a numeric index or a landmark name.
// Numeric indices are not range-checked here; PoseConfig.Validate does that.
func (l *Landmark) UnmarshalJSON(data []byte) error {
	var index int
	if err := json.Unmarshal(data, &index); err == nil {
		*l = Landmark(index)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("landmark must be an index or a name: %s", string(data))
	}

	// Numeric strings ("11") show up in generated rule documents.
	if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		*l = Landmark(n)
		return nil
	}

	parsed, err := ParseLandmark(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// JSONSchema describes the accepted encodings of a landmark reference.
func (Landmark) JSONSchema() *jsonschema.Schema {
	names := make([]any, 0, LandmarkCount)
	for _, n := range landmarkNames {
		names = append(names, n)
	}
	return &jsonschema.Schema{
		Description: "Landmark index (0-32) or BlazePose landmark name",
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: json.Number("0"), Maximum: json.Number(strconv.Itoa(LandmarkCount - 1))},
			{Type: "string", Enum: names},
		},
	}
}
