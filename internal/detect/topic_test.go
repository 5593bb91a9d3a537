package detect

import "testing"

func TestTopicProcessEmitsOnChange(t *testing.T) {
	m := NewTopicMapper(nil)

	got, ok := m.Process("can I see the robot dog")
	if !ok {
		t.Fatal("expected a model on first topic detection")
	}
	if got.Name != "Unitree Go2 Robot Dog" {
		t.Errorf("model = %q", got.Name)
	}

	// Same topic again: no event.
	if _, ok := m.Process("how fast can the unitree walk"); ok {
		t.Error("unchanged topic must not emit a model")
	}

	// Topic switch: new model.
	got, ok = m.Process("what about the depth camera")
	if !ok {
		t.Fatal("expected a model on topic change")
	}
	if got.Path != "3d v2/source/model.glb" {
		t.Errorf("model path = %q", got.Path)
	}
}

func TestTopicWordBoundaryAndPhrases(t *testing.T) {
	m := NewTopicMapper(nil)

	// "uavionics" must not trigger the single-word keyword "uav".
	if _, ok := m.Process("we looked at uavionics suppliers"); ok {
		t.Error("matched inside a longer word")
	}
	if _, ok := m.Process("a four legged machine"); !ok {
		t.Error("expected the phrase keyword to match")
	}
}

func TestTopicReset(t *testing.T) {
	m := NewTopicMapper(nil)

	if _, ok := m.Process("show me the drone"); !ok {
		t.Fatal("expected drone model")
	}
	m.Reset()
	if _, ok := m.Process("show me the drone"); !ok {
		t.Error("after Reset the same topic must emit again")
	}
}

func TestTopicNone(t *testing.T) {
	m := NewTopicMapper(nil)
	if _, ok := m.Process("when is the lab open"); ok {
		t.Error("expected no topic")
	}
	if _, ok := m.Process(""); ok {
		t.Error("expected no topic for empty text")
	}
}
