package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "ub")
	return store, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func newBoltStoreTest(t *testing.T) *BoltStore {
	t.Helper()
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "sessions.db"), nil)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// exerciseStore runs the Store contract against any backend: save then load
// returns an equal session, load of a missing identity is ErrNotFound,
// delete is idempotent.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	sess := fullSession()

	if _, err := store.Load(ctx, sess.Identity); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	if err := store.Save(ctx, sess.Identity, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, sess.Identity)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Identity != sess.Identity || loaded.State != sess.State {
		t.Fatalf("loaded session differs: %+v vs %+v", loaded, sess)
	}
	if string(loaded.AuthKey) != string(sess.AuthKey) {
		t.Fatal("auth key did not survive the store round trip")
	}

	// Save is whole-value replace.
	sess.State = StateFailed
	sess.Failure = FailureTooManyAttempts
	sess.AuthKey = nil
	if err := store.Save(ctx, sess.Identity, sess); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	loaded, err = store.Load(ctx, sess.Identity)
	if err != nil {
		t.Fatalf("Load after replace failed: %v", err)
	}
	if loaded.State != StateFailed || loaded.AuthKey != nil {
		t.Fatalf("replace left stale fields: %+v", loaded)
	}

	if err := store.Delete(ctx, sess.Identity); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, sess.Identity); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, sess.Identity); err != nil {
		t.Fatalf("repeat Delete should be a no-op, got %v", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStoreContract(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	exerciseStore(t, store)
}

func TestBoltStoreContract(t *testing.T) {
	exerciseStore(t, newBoltStoreTest(t))
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	store, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "acct-1", fullSession()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if exists := rdb.Exists(ctx, "ub:acct-1").Val(); exists != 1 {
		t.Fatal("expected session under the prefixed key")
	}
}

func TestRedisStoreCorruptBlobIsNotNotFound(t *testing.T) {
	store, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, "ub:acct-1", "garbage", 0).Err(); err != nil {
		t.Fatalf("seeding garbage blob: %v", err)
	}
	_, err := store.Load(ctx, "acct-1")
	if !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("corruption must not be reported as not-found")
	}
}

func TestRedisStoreBackendDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisStore(rdb, "ub")
	mr.Close()

	if _, err := store.Load(context.Background(), "acct-1"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if err := store.Save(context.Background(), "acct-1", fullSession()); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable on save, got %v", err)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := OpenBoltStore(path, nil)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	sess := fullSession()
	if err := store.Save(ctx, sess.Identity, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err = OpenBoltStore(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	loaded, err := store.Load(ctx, sess.Identity)
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if loaded.State != sess.State || string(loaded.AuthKey) != string(sess.AuthKey) {
		t.Fatal("session did not survive database reopen")
	}
}
