package sandbox

import "testing"

func TestWildcardSubsumption_Sensor(t *testing.T) {
	s := NewCapabilitySet()
	s.Grant(ReadSensor(SensorAny))

	for kind := 0; kind < 6; kind++ {
		if !s.Has(ReadSensor(kind)) {
			t.Errorf("Has(ReadSensor(%d)) = false, want true under ReadSensor(Any)", kind)
		}
	}
}

func TestWildcardSubsumption_Alert(t *testing.T) {
	s := NewCapabilitySet()
	s.Grant(SendAlert(AlertAny))

	for level := 0; level < 4; level++ {
		if !s.Has(SendAlert(level)) {
			t.Errorf("Has(SendAlert(%d)) = false, want true under SendAlert(Any)", level)
		}
	}
}

func TestCapabilitySet_NoWildcardNoMatch(t *testing.T) {
	s := NewCapabilitySet()
	s.Grant(ReadSensor(0))

	if s.Has(ReadSensor(1)) {
		t.Error("Has(ReadSensor(1)) = true, want false: only sensor 0 was granted")
	}
}

func TestCapabilitySet_GrantRevoke(t *testing.T) {
	s := NewCapabilitySet()
	s.Grant(Log())
	if !s.Has(Log()) {
		t.Fatal("expected Log capability after Grant")
	}
	s.Revoke(Log())
	if s.Has(Log()) {
		t.Fatal("expected Log capability gone after Revoke")
	}
}

func TestPresets(t *testing.T) {
	basic := BasicCapabilities()
	for _, c := range []Capability{Log(), GetTime(), Random()} {
		if !basic.Has(c) {
			t.Errorf("basic preset missing %+v", c)
		}
	}

	sensor := SensorAccessCapabilities()
	if !sensor.Has(ReadSensor(3)) {
		t.Error("sensor-access preset should grant ReadSensor(Any)")
	}

	alert := AlertSystemCapabilities()
	if !alert.Has(SendAlert(2)) {
		t.Error("alert-system preset should grant SendAlert(Any)")
	}
}

func TestCapabilityPolicy_Apply(t *testing.T) {
	def := BasicCapabilities()
	restricted := NewCapabilitySet()
	restricted.Grant(Random())

	policy := NewCapabilityPolicy(def, restricted)
	target := BasicCapabilities()
	policy.Apply(target)

	if target.Has(Random()) {
		t.Error("Apply() should have revoked Random per the restricted set")
	}
	if !target.Has(Log()) {
		t.Error("Apply() should not touch capabilities outside the restricted set")
	}
}

func TestCapabilitySet_Clone(t *testing.T) {
	s := BasicCapabilities()
	clone := s.Clone()
	clone.Revoke(Log())

	if !s.Has(Log()) {
		t.Error("mutating a clone must not affect the original")
	}
}
