package app

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

func TestRegistryCreateGetRemove(t *testing.T) {
	r := NewRegistry(noopLogger{}, 16, time.Minute)
	m, err := r.Create(humans(2), Options{Rng: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(m.ID()) != 36 {
		t.Fatalf("match id %q is not a uuid", m.ID())
	}
	got, err := r.Get(m.ID())
	if err != nil || got != m {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("Get missing: err = %v", err)
	}
	if _, err := r.Create(humans(5), Options{}); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("Create invalid: err = %v", err)
	}

	r.Remove(m.ID())
	if _, err := r.Get(m.ID()); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("Get after Remove: err = %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistryJoinCodes(t *testing.T) {
	r := NewRegistry(noopLogger{}, 16, time.Minute)
	room := newRoom(t, 2)
	r.Add(room)
	code := room.JoinCode()

	got, err := r.ByJoinCode(" " + strings.ToLower(code) + " ")
	if err != nil || got != room {
		t.Fatalf("ByJoinCode = %v, %v", got, err)
	}
	if _, err := r.ByJoinCode("NOPE0000"); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("unknown code: err = %v", err)
	}

	room.Join("a", NewHuman("", "A"))
	room.Join("b", NewHuman("", "B"))
	if _, err := r.ByJoinCode(code); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("code of a full room: err = %v", err)
	}
	room.Leave("b")
	if _, err := r.ByJoinCode(code); !errors.Is(err, ErrUnknownMatch) {
		t.Fatal("a retired code must not come back when a seat is vacated")
	}
}

func TestRegistryRemoveDropsCode(t *testing.T) {
	r := NewRegistry(noopLogger{}, 16, time.Minute)
	room := newRoom(t, 4)
	r.Add(room)
	r.Remove(room.ID())
	if _, err := r.ByJoinCode(room.JoinCode()); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("code of a removed room: err = %v", err)
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(noopLogger{}, 16, 50*time.Millisecond)
	m, err := r.Create(humans(2), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, err := r.Get(m.ID()); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("Get after ttl: err = %v", err)
	}
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(noopLogger{}, 2, time.Minute)
	first, _ := r.Create(humans(2), Options{})
	r.Create(humans(2), Options{})
	r.Create(humans(2), Options{})
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if _, err := r.Get(first.ID()); !errors.Is(err, ErrUnknownMatch) {
		t.Fatalf("oldest match should be evicted, err = %v", err)
	}
}
