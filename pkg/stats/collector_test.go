package stats

import "testing"

func TestCollectorRecordsAndGathers(t *testing.T) {
	c := New()

	c.RecordPut()
	c.RecordPut()
	c.RecordGet()
	c.RecordNotFound()
	c.RecordRemove()
	c.RecordFreeze()
	c.RecordWALBytes(128)
	c.RecordWALBytes(32)

	snap, err := c.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}

	if snap.Puts != 2 {
		t.Errorf("puts = %v, want 2", snap.Puts)
	}
	if snap.Gets != 1 {
		t.Errorf("gets = %v, want 1", snap.Gets)
	}
	if snap.Removes != 1 {
		t.Errorf("removes = %v, want 1", snap.Removes)
	}
	if snap.NotFound != 1 {
		t.Errorf("not found = %v, want 1", snap.NotFound)
	}
	if snap.Freezes != 1 {
		t.Errorf("freezes = %v, want 1", snap.Freezes)
	}
	if snap.WALBytes != 160 {
		t.Errorf("wal bytes = %v, want 160", snap.WALBytes)
	}
}

func TestCollectorZeroValueSnapshot(t *testing.T) {
	c := New()
	snap, err := c.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if snap != (Snapshot{}) {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
