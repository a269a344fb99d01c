package vulkan

import (
	"errors"
	"sync"
	"testing"
)

func TestLockPoolSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.SafeCall(ResourceManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 64 {
		t.Fatalf("counter = %d", counter)
	}
}

func TestLockPoolReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	want := errors.New("boom")
	if err := pool.SafeCall(QueueManagement, func() error { return want }); err != want {
		t.Fatalf("got %v", err)
	}
	// the group must be unlocked again
	if err := pool.SafeCall(QueueManagement, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
}
