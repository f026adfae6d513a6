package rendering

import (
	"image/color"
	"math"

	"github.com/jonathan/pose-coach/internal/types"
	"golang.org/x/image/colornames"
)

// Surface is the subset of a 2D raster context the renderer draws with.
// *gg.Context satisfies it.
type Surface interface {
	SetColor(c color.Color)
	SetLineWidth(width float64)
	DrawLine(x1, y1, x2, y2 float64)
	DrawCircle(x, y, r float64)
	Stroke() error
	Fill() error
}

// Connection is a skeleton segment between two landmarks.
type Connection struct {
	From types.Landmark
	To   types.Landmark
}

// PoseConnections lists the drawn segments: torso, arms, then legs.
var PoseConnections = []Connection{
	// Torso
	{types.LeftShoulder, types.RightShoulder},
	{types.LeftShoulder, types.LeftHip},
	{types.RightShoulder, types.RightHip},
	{types.LeftHip, types.RightHip},
	// Arms
	{types.LeftShoulder, types.LeftElbow},
	{types.LeftElbow, types.LeftWrist},
	{types.RightShoulder, types.RightElbow},
	{types.RightElbow, types.RightWrist},
	// Legs
	{types.LeftHip, types.LeftKnee},
	{types.LeftKnee, types.LeftAnkle},
	{types.RightHip, types.RightKnee},
	{types.RightKnee, types.RightAnkle},
}

// Drawing style.
var (
	SkeletonColor color.Color = colornames.Deepskyblue
	KeypointColor color.Color = colornames.Mediumslateblue
)

const (
	SkeletonLineWidth = 3.0
	KeypointRadius    = 4.0
)

// DrawSkeleton strokes every connection whose two endpoints are present and
// have a score strictly above minConfidence. Coordinates are multiplied by
// scale; a non-positive or non-finite scale is treated as 1.
//
// It returns the number of segments drawn. The first stroke error stops drawing.
func DrawSkeleton(keypoints types.KeypointSet, minConfidence float64, surface Surface, scale float64) (int, error) {
	if surface == nil {
		return 0, nil
	}
	scale = normalizeScale(scale)

	drawn := 0
	for _, conn := range PoseConnections {
		from, ok1 := keypoints.Visible(conn.From, minConfidence)
		to, ok2 := keypoints.Visible(conn.To, minConfidence)
		if !ok1 || !ok2 || !from.Finite() || !to.Finite() {
			continue
		}

		surface.SetColor(SkeletonColor)
		surface.SetLineWidth(SkeletonLineWidth)
		surface.DrawLine(from.X*scale, from.Y*scale, to.X*scale, to.Y*scale)
		if err := surface.Stroke(); err != nil {
			return drawn, &RenderError{Message: "failed to stroke skeleton segment", Cause: err}
		}
		drawn++
	}
	return drawn, nil
}

// DrawKeypoints fills a circle at every keypoint whose score is strictly above
// minConfidence. Scale follows the same rules as DrawSkeleton.
func DrawKeypoints(keypoints types.KeypointSet, minConfidence float64, surface Surface, scale float64) (int, error) {
	if surface == nil {
		return 0, nil
	}
	scale = normalizeScale(scale)

	drawn := 0
	for i := range keypoints {
		kp, ok := keypoints.Visible(types.Landmark(i), minConfidence)
		if !ok || !kp.Finite() {
			continue
		}

		surface.SetColor(KeypointColor)
		surface.DrawCircle(kp.X*scale, kp.Y*scale, KeypointRadius)
		if err := surface.Fill(); err != nil {
			return drawn, &RenderError{Message: "failed to fill keypoint", Cause: err}
		}
		drawn++
	}
	return drawn, nil
}

func normalizeScale(scale float64) float64 {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 1
	}
	return scale
}
