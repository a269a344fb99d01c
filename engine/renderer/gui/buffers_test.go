package gui

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/cumulus/engine/core"
	"github.com/spaghettifunk/cumulus/engine/gpu"
	"github.com/spaghettifunk/cumulus/engine/gpu/gputest"
)

func TestEnsureCapacityFirstAllocation(t *testing.T) {
	rec := gputest.NewRecorder()
	m := newBufferManager(rec, core.Logger())
	if m.capacity(roleVertex) != 0 || m.buffer(roleVertex) != nil {
		t.Fatal("manager should start empty")
	}

	buf, err := m.ensureCapacity(roleVertex, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size() < 2000 || m.capacity(roleVertex) < 2000 {
		t.Fatalf("allocated %d bytes, want at least 2000", buf.Size())
	}
	if rec.Count(gputest.OpReleaseBuffer) != 0 {
		t.Fatal("nothing existed, nothing should be released")
	}
	if buf.(*gputest.Buffer).Usage() != gpu.BufferUsageVertex {
		t.Fatal("vertex role created a non-vertex buffer")
	}
	if m.buffer(roleIndex) != nil {
		t.Fatal("roles must be independent")
	}
}

func TestEnsureCapacityGrowth(t *testing.T) {
	tests := []struct {
		name     string
		required []uint32
		wantCap  uint32
		creates  int
		releases int
	}{
		{"fits", []uint32{100, 50, 200}, 200, 1, 0},
		{"exact", []uint32{100, 200}, 200, 1, 0},
		{"grows", []uint32{100, 201}, 402, 2, 1},
		{"grows twice", []uint32{10, 100, 1000, 10}, 2000, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := gputest.NewRecorder()
			m := newBufferManager(rec, core.Logger())
			var last gpu.Buffer
			for _, req := range tt.required {
				buf, err := m.ensureCapacity(roleIndex, req)
				if err != nil {
					t.Fatal(err)
				}
				if buf.Size() < req {
					t.Fatalf("buffer of %d bytes for %d required", buf.Size(), req)
				}
				last = buf
			}
			if m.capacity(roleIndex) != tt.wantCap || last.Size() != tt.wantCap {
				t.Fatalf("capacity = %d, want %d", m.capacity(roleIndex), tt.wantCap)
			}
			if n := rec.Count(gputest.OpCreateBuffer); n != tt.creates {
				t.Fatalf("%d creates, want %d", n, tt.creates)
			}
			if n := rec.Count(gputest.OpReleaseBuffer); n != tt.releases {
				t.Fatalf("%d releases, want %d", n, tt.releases)
			}
			m.release()
			if rec.Live() != 0 || len(rec.InvalidReleases()) != 0 {
				t.Fatalf("live %d, invalid releases %v", rec.Live(), rec.InvalidReleases())
			}
		})
	}
}

func TestEnsureCapacityFailureLeavesRoleEmpty(t *testing.T) {
	rec := gputest.NewRecorder()
	m := newBufferManager(rec, core.Logger())
	if _, err := m.ensureCapacity(roleVertex, 100); err != nil {
		t.Fatal(err)
	}

	rec.Fail(gputest.OpCreateBuffer, gpu.ErrOutOfMemory)
	buf, err := m.ensureCapacity(roleVertex, 1000)
	if !errors.Is(err, gpu.ErrOutOfMemory) || buf != nil {
		t.Fatalf("got %v, %v", buf, err)
	}
	if m.buffer(roleVertex) != nil || m.capacity(roleVertex) != 0 {
		t.Fatal("failed growth must not keep a released buffer around")
	}
	if rec.Live() != 0 {
		t.Fatal("old buffer leaked")
	}

	rec.ClearFailures()
	m.release()
	m.release()
	if bad := rec.InvalidReleases(); len(bad) != 0 {
		t.Fatalf("invalid releases %v", bad)
	}
}
