package models

// Joint names following the MediaPipe Pose convention (33 landmarks).
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = "nose"
	LeftEyeInner   = "left_eye_inner"
	LeftEye        = "left_eye"
	LeftEyeOuter   = "left_eye_outer"
	RightEyeInner  = "right_eye_inner"
	RightEye       = "right_eye"
	RightEyeOuter  = "right_eye_outer"
	LeftEar        = "left_ear"
	RightEar       = "right_ear"
	MouthLeft      = "mouth_left"
	MouthRight     = "mouth_right"
	LeftShoulder   = "left_shoulder"
	RightShoulder  = "right_shoulder"
	LeftElbow      = "left_elbow"
	RightElbow     = "right_elbow"
	LeftWrist      = "left_wrist"
	RightWrist     = "right_wrist"
	LeftPinky      = "left_pinky"
	RightPinky     = "right_pinky"
	LeftIndex      = "left_index"
	RightIndex     = "right_index"
	LeftThumb      = "left_thumb"
	RightThumb     = "right_thumb"
	LeftHip        = "left_hip"
	RightHip       = "right_hip"
	LeftKnee       = "left_knee"
	RightKnee      = "right_knee"
	LeftAnkle      = "left_ankle"
	RightAnkle     = "right_ankle"
	LeftHeel       = "left_heel"
	RightHeel      = "right_heel"
	LeftFootIndex  = "left_foot_index"
	RightFootIndex = "right_foot_index"
)

// JointNames lists the full landmark vocabulary in MediaPipe index order.
var JointNames = []string{
	Nose, LeftEyeInner, LeftEye, LeftEyeOuter, RightEyeInner, RightEye,
	RightEyeOuter, LeftEar, RightEar, MouthLeft, MouthRight,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist,
	RightWrist, LeftPinky, RightPinky, LeftIndex, RightIndex, LeftThumb,
	RightThumb, LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle,
	RightAnkle, LeftHeel, RightHeel, LeftFootIndex, RightFootIndex,
}

// MovementJoints are the joints tracked by the movement analyzer. Face and
// finger landmarks are too jittery to say anything useful about whole-body
// movement, so only the major limb joints are tracked.
var MovementJoints = []string{
	LeftWrist, RightWrist,
	LeftElbow, RightElbow,
	LeftShoulder, RightShoulder,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// MirroredJointPairs maps each left-side movement joint to its right-side
// counterpart, used for the symmetry score.
var MirroredJointPairs = [][2]string{
	{LeftWrist, RightWrist},
	{LeftElbow, RightElbow},
	{LeftShoulder, RightShoulder},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
}

var knownJoints = func() map[string]struct{} {
	m := make(map[string]struct{}, len(JointNames))
	for _, name := range JointNames {
		m[name] = struct{}{}
	}
	return m
}()

// IsKnownJoint reports whether name belongs to the landmark vocabulary.
func IsKnownJoint(name string) bool {
	_, ok := knownJoints[name]
	return ok
}

// Landmark is a single tracked body-joint position for one frame, in
// normalized image coordinates, with the detector's visibility score.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// FrameObservation is one frame's worth of detector output. Joints the
// detector could not see may simply be absent from the map.
type FrameObservation struct {
	Frame     int                 `json:"frame"`
	Timestamp float64             `json:"timestamp"`
	Landmarks map[string]Landmark `json:"landmarks"`
}

// Landmark returns the named joint, if present.
func (f *FrameObservation) Landmark(name string) (Landmark, bool) {
	lm, ok := f.Landmarks[name]
	return lm, ok
}
