package feed

import (
	"encoding/json"

	"github.com/skymote/go-minipilot/pkg/pose"
)

// The two feeds name their rotation components differently: the tracker
// sends scalar-last (x,y,z,w), the simulation sends scalar-first
// (w,x,y,z), and the simulation's components fill the controller's
// scalar-last slots positionally. The deployed rig depends on this exact
// mapping, so it is preserved rather than normalized.

type translationBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type trackingRequest struct {
	Translation *translationBody `json:"translation"`
	Rotation    *pose.Quaternion `json:"rotation"`
	Reset       *int             `json:"reset"`
}

type targetRotationBody struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type targetRequest struct {
	Translation *translationBody    `json:"translation"`
	Rotation    *targetRotationBody `json:"rotation"`
}

// decodeTracking parses a mocap feed request. The reset flag is truthy
// only at the exact value 1.
func decodeTracking(body []byte) (pose.Pose, bool, error) {
	var req trackingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return pose.Pose{}, false, ErrMalformedBody
	}
	if req.Translation == nil {
		return pose.Pose{}, false, ErrMissingTranslation
	}
	if req.Rotation == nil {
		return pose.Pose{}, false, ErrMissingRotation
	}
	if req.Reset == nil {
		return pose.Pose{}, false, ErrMissingReset
	}

	p := pose.Pose{
		Translation: pose.Vec3{X: req.Translation.X, Y: req.Translation.Y, Z: req.Translation.Z},
		Rotation:    *req.Rotation,
	}
	return p, *req.Reset == 1, nil
}

// decodeTarget parses a simulation feed request, assembling the
// scalar-first rotation positionally into scalar-last storage.
func decodeTarget(body []byte) (pose.Pose, error) {
	var req targetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return pose.Pose{}, ErrMalformedBody
	}
	if req.Translation == nil {
		return pose.Pose{}, ErrMissingTranslation
	}
	if req.Rotation == nil {
		return pose.Pose{}, ErrMissingRotation
	}

	p := pose.Pose{
		Translation: pose.Vec3{X: req.Translation.X, Y: req.Translation.Y, Z: req.Translation.Z},
		Rotation: pose.Quaternion{
			X: req.Rotation.W,
			Y: req.Rotation.X,
			Z: req.Rotation.Y,
			W: req.Rotation.Z,
		},
	}
	return p, nil
}
