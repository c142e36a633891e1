// Package pose provides rigid-body pose types and the yaw-error math used
// by the flight controller. All functions are pure.
package pose

import "math"

// Vec3 is a position in metres, mocap frame (Y up).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation stored scalar-last (x, y, z, w).
// Incoming rotations are not re-normalized; the tracker delivers unit
// quaternions and small drift only perturbs the yaw extraction by the same
// order, so it is tolerated rather than corrected.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a translation plus an orientation.
type Pose struct {
	Translation Vec3
	Rotation    Quaternion
}

// IdleOrientation is the orientation a pose holds before any tracking data
// arrives. The mocap rig's reference frame is rotated a half turn about the
// vertical axis relative to the body frame, so the rig's "identity" is this
// quaternion, not (0,0,0,1).
var IdleOrientation = Quaternion{X: 0, Y: 1, Z: 0, W: 0}

// Conjugate returns the quaternion with the vector part negated.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Mul returns the Hamilton product q*r.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Norm returns the quaternion's Euclidean norm.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Yaw extracts the rotation about the vertical axis in radians.
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.Y*q.W-q.X*q.Z), 1-2*q.Y*q.Y-2*q.Z*q.Z)
}

// AngularDifference returns the yaw error between the current and target
// orientations: the yaw of current composed with the conjugate of target.
func AngularDifference(current, target Quaternion) float64 {
	return current.Mul(target.Conjugate()).Yaw()
}
