package compensation

// TrainedMarkerQualification is the directory code of a trained trail marker.
const TrainedMarkerQualification = "ZZ"

// QualificationSnapshot maps member ids to the qualification codes they hold.
type QualificationSnapshot map[string][]string

// HoldsTrainedMarker reports whether codes contain the exact trained marker code.
func HoldsTrainedMarker(codes []string) bool {
	for _, code := range codes {
		if code == TrainedMarkerQualification {
			return true
		}
	}
	return false
}

// Gate decides whether meal and work allowances apply to a member.
type Gate struct {
	snapshot QualificationSnapshot
}

func NewGate(snapshot QualificationSnapshot) Gate {
	return Gate{snapshot: snapshot}
}

func (g Gate) Allows(memberID string) bool {
	if g.snapshot == nil {
		return false
	}
	return HoldsTrainedMarker(g.snapshot[memberID])
}
