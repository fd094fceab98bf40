package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/easeaico/project-pneuma/internal/config"
	"github.com/easeaico/project-pneuma/internal/storage"
	"github.com/easeaico/project-pneuma/internal/types"
	"github.com/easeaico/project-pneuma/internal/utils"
	"github.com/easeaico/project-pneuma/internal/voice"
)

// fakeRepo wraps an in-memory store and can be told to fail.
type fakeRepo struct {
	*storage.MemoryStore

	mu        sync.Mutex
	failLoads bool
	failSaves bool
	saves     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{MemoryStore: storage.NewMemoryStore()}
}

func (r *fakeRepo) setFailSaves(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSaves = fail
}

func (r *fakeRepo) loadErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLoads {
		return fmt.Errorf("load: %w", storage.ErrCorrupt)
	}
	return nil
}

func (r *fakeRepo) saveErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.failSaves {
		return errors.New("disk full")
	}
	return nil
}

func (r *fakeRepo) LoadState(ctx context.Context, id string) (*types.PersonalityState, error) {
	if err := r.loadErr(); err != nil {
		return nil, err
	}
	return r.MemoryStore.LoadState(ctx, id)
}

func (r *fakeRepo) SaveState(ctx context.Context, id string, state types.PersonalityState) error {
	if err := r.saveErr(); err != nil {
		return err
	}
	return r.MemoryStore.SaveState(ctx, id, state)
}

func (r *fakeRepo) LoadMemory(ctx context.Context, id string) (*types.MemoryDocument, error) {
	if err := r.loadErr(); err != nil {
		return nil, err
	}
	return r.MemoryStore.LoadMemory(ctx, id)
}

func (r *fakeRepo) SaveMemory(ctx context.Context, id string, doc types.MemoryDocument) error {
	if err := r.saveErr(); err != nil {
		return err
	}
	return r.MemoryStore.SaveMemory(ctx, id, doc)
}

func (r *fakeRepo) LoadConversations(ctx context.Context, id string) (*types.ConversationDocument, error) {
	if err := r.loadErr(); err != nil {
		return nil, err
	}
	return r.MemoryStore.LoadConversations(ctx, id)
}

func (r *fakeRepo) SaveConversations(ctx context.Context, id string, doc types.ConversationDocument) error {
	if err := r.saveErr(); err != nil {
		return err
	}
	return r.MemoryStore.SaveConversations(ctx, id, doc)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// panicSource makes composition blow up.
type panicSource struct{}

func (panicSource) Float64() float64 {
	panic("random source exploded")
}

func newTestEngine(t *testing.T, repo SessionRepo, clock *fakeClock, rng utils.RandomSource) *Engine {
	t.Helper()
	persona, err := voice.LoadPersona("pneuma")
	if err != nil {
		t.Fatalf("load persona: %v", err)
	}
	if clock == nil {
		clock = &fakeClock{now: time.Unix(1700000000, 0)}
	}
	if rng == nil {
		rng = utils.NewRandomSource(1)
	}
	var ids atomic.Int64
	engine, err := NewEngine(repo, persona, EngineConfig{
		Random: rng,
		Clock:  clock.Now,
		NewID: func() string {
			return fmt.Sprintf("conv-%d", ids.Add(1))
		},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	if _, err := NewEngine(nil, &voice.Persona{}, EngineConfig{}); err == nil {
		t.Fatalf("expected error without repo")
	}
	if _, err := NewEngine(newFakeRepo(), nil, EngineConfig{}); err == nil {
		t.Fatalf("expected error without persona")
	}
}

func TestRespondPersistsTurn(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	engine := newTestEngine(t, repo, nil, nil)

	reply, err := engine.Respond(ctx, "s1", "why does meaning even matter")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if strings.TrimSpace(reply.Reply) == "" {
		t.Fatalf("expected reply text")
	}
	if reply.Vibe != "philosophical" {
		t.Fatalf("expected philosophical, got %s", reply.Vibe)
	}
	if reply.Awareness != "reflective" {
		t.Fatalf("expected reflective awareness, got %s", reply.Awareness)
	}
	if reply.ConversationID != "conv-1" {
		t.Fatalf("expected conv-1, got %s", reply.ConversationID)
	}

	state, err := repo.MemoryStore.LoadState(ctx, "s1")
	if err != nil || state == nil {
		t.Fatalf("expected stored state, got %v, %v", state, err)
	}
	if len(state.Memories) != 1 || state.Memories[0] != "why does meaning even matter" {
		t.Fatalf("unexpected snippets %v", state.Memories)
	}
	mem, err := repo.MemoryStore.LoadMemory(ctx, "s1")
	if err != nil || mem == nil || len(mem.ShortTerm) != 1 {
		t.Fatalf("expected stored short-term entry, got %#v, %v", mem, err)
	}
	if mem.ShortTerm[0].Reply != reply.Reply || mem.ShortTerm[0].Vibe != "philosophical" {
		t.Fatalf("unexpected entry %#v", mem.ShortTerm[0])
	}
	convs, err := repo.MemoryStore.LoadConversations(ctx, "s1")
	if err != nil || convs == nil || len(convs.Conversations) != 1 {
		t.Fatalf("expected stored conversation, got %#v, %v", convs, err)
	}
	if convs.Conversations[0].ID != "conv-1" || convs.Conversations[0].StartedAt != 1700000000000 {
		t.Fatalf("unexpected conversation %#v", convs.Conversations[0])
	}
}

func TestRespondFearShortCircuit(t *testing.T) {
	engine := newTestEngine(t, newFakeRepo(), nil, nil)

	reply, err := engine.Respond(context.Background(), "s1", "I fear the dark")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !strings.HasPrefix(reply.Reply, engine.Persona().Fear+"\n") {
		t.Fatalf("expected fear line first, got %q", reply.Reply)
	}
	if reply.Mode != "" {
		t.Fatalf("expected no mode, got %s", reply.Mode)
	}
}

func TestRespondNuminousCooldown(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	engine := newTestEngine(t, newFakeRepo(), clock, nil)

	steps := []struct {
		advance time.Duration
		message string
		want    string
	}{
		{0, "what is the meaning of life", "numinous"},
		{time.Minute, "what is the meaning of life", "reflective"},
		{time.Minute, "what is the meaning of life", "reflective"},
		{3 * time.Minute, "what is the meaning of life", "numinous"},
		{time.Second, "my code has a bug", "neutral"},
		{time.Second, "I feel alone", "reflective"},
	}
	for i, step := range steps {
		clock.Advance(step.advance)
		reply, err := engine.Respond(ctx, "s1", step.message)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if reply.Awareness != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, reply.Awareness)
		}
	}
}

func TestRespondUsesDriftFromHistory(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	doc := types.NewMemoryDocument()
	for i := 0; i < 5; i++ {
		doc.ShortTerm = append(doc.ShortTerm, types.ShortTermEntry{User: "help", Reply: "here", Vibe: "emotional"})
	}
	if err := repo.MemoryStore.SaveMemory(ctx, "s1", *doc); err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	engine := newTestEngine(t, repo, nil, utils.NewSequenceSource(0.99))

	reply, err := engine.Respond(ctx, "s1", "tell me about the weather")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Mode != string(voice.ModeMystic) {
		t.Fatalf("expected melancholic drift to pick mystic, got %s", reply.Mode)
	}
}

func TestRespondConcurrentTurnsOnOneSession(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	engine := newTestEngine(t, repo, nil, nil)

	const turns = 40
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := engine.Respond(ctx, "shared", fmt.Sprintf("message %d", i)); err != nil {
				t.Errorf("respond %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	snapshot, err := engine.Snapshot(ctx, "shared")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Memory.ShortTerm) != types.MaxShortTerm {
		t.Fatalf("expected %d short-term entries, got %d", types.MaxShortTerm, len(snapshot.Memory.ShortTerm))
	}
	if len(snapshot.State.Memories) != types.MaxStateMemories {
		t.Fatalf("expected %d snippets, got %d", types.MaxStateMemories, len(snapshot.State.Memories))
	}
	if got := len(snapshot.Conversations.Conversations[0].Exchanges); got != turns {
		t.Fatalf("expected %d exchanges, got %d", turns, got)
	}

	stored, err := repo.MemoryStore.LoadConversations(ctx, "shared")
	if err != nil {
		t.Fatalf("load conversations: %v", err)
	}
	if got := len(stored.Conversations[0].Exchanges); got != turns {
		t.Fatalf("expected %d stored exchanges, got %d", turns, got)
	}
}

func TestRespondParallelSessionsStayIsolated(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newFakeRepo(), nil, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				if _, err := engine.Respond(ctx, id, id+" says hi"); err != nil {
					t.Errorf("respond %s: %v", id, err)
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c"} {
		snapshot, err := engine.Snapshot(ctx, id)
		if err != nil {
			t.Fatalf("snapshot %s: %v", id, err)
		}
		if len(snapshot.Memory.ShortTerm) != 3 {
			t.Fatalf("%s: expected 3 entries, got %d", id, len(snapshot.Memory.ShortTerm))
		}
		for _, entry := range snapshot.Memory.ShortTerm {
			if entry.User != id+" says hi" {
				t.Fatalf("%s: found foreign entry %#v", id, entry)
			}
		}
	}
}

func TestRespondDegradesOnStorageFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.failLoads = true
	repo.failSaves = true
	engine := newTestEngine(t, repo, nil, nil)

	for i := 0; i < 3; i++ {
		reply, err := engine.Respond(context.Background(), "s1", "hello again")
		if err != nil {
			t.Fatalf("respond: %v", err)
		}
		if reply.Reply == "" {
			t.Fatalf("expected reply despite storage failures")
		}
	}
	snapshot, err := engine.Snapshot(context.Background(), "s1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Memory.ShortTerm) != 3 {
		t.Fatalf("expected in-memory history to continue, got %d", len(snapshot.Memory.ShortTerm))
	}
}

func TestRespondRecoversComposePanic(t *testing.T) {
	engine := newTestEngine(t, newFakeRepo(), nil, panicSource{})

	reply, err := engine.Respond(context.Background(), "s1", "lol")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Reply != engine.Persona().Fallback {
		t.Fatalf("expected fallback reply, got %q", reply.Reply)
	}
	if reply.Vibe != "playful" {
		t.Fatalf("expected playful vibe, got %s", reply.Vibe)
	}
}

func TestRespondRejectsDoneContextAndClosedEngine(t *testing.T) {
	engine := newTestEngine(t, newFakeRepo(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Respond(ctx, "s1", "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := engine.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := engine.Respond(context.Background(), "s1", "hi"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := engine.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCloseFlushesSessionsAfterFailedWrites(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	engine := newTestEngine(t, repo, nil, nil)

	repo.setFailSaves(true)
	for _, id := range []string{"a", "b"} {
		if _, err := engine.Respond(ctx, id, "remember this"); err != nil {
			t.Fatalf("respond: %v", err)
		}
	}
	if state, _ := repo.MemoryStore.LoadState(ctx, "a"); state != nil {
		t.Fatalf("expected nothing stored while saves fail")
	}

	repo.setFailSaves(false)
	if err := engine.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		state, err := repo.MemoryStore.LoadState(ctx, id)
		if err != nil || state == nil {
			t.Fatalf("%s: expected flushed state, got %v, %v", id, state, err)
		}
	}
}

func TestSessionSurvivesEngineRestart(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	first := newTestEngine(t, repo, nil, nil)
	if _, err := first.Respond(ctx, "", "wtf is happening"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := newTestEngine(t, repo, nil, nil)
	snapshot, err := second.Snapshot(ctx, DefaultSessionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.State.Memories) != 1 || snapshot.State.Memories[0] != "wtf is happening" {
		t.Fatalf("expected restored snippet, got %v", snapshot.State.Memories)
	}
	if snapshot.State.Drift <= types.DefaultPersonalityState().Drift {
		t.Fatalf("expected restored drift above baseline, got %v", snapshot.State.Drift)
	}
	if snapshot.Awareness != "neutral" {
		t.Fatalf("expected awareness to start neutral, got %s", snapshot.Awareness)
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg, err := config.Parse(map[string]string{"PNEUMA_PERSONA": "lumen", "PNEUMA_SEED": "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	engine, err := NewEngineFromConfig(newFakeRepo(), &cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if engine.Persona().Name != "lumen" {
		t.Fatalf("expected lumen persona, got %s", engine.Persona().Name)
	}

	cfg.PersonaFile = "/does/not/exist.yaml"
	if _, err := NewEngineFromConfig(newFakeRepo(), &cfg); err == nil {
		t.Fatalf("expected error for missing persona file")
	}
}

func readJSONFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return doc
}

func TestSnapshotDoesNotWriteOnClose(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), storage.DataFileName)
	if err := os.WriteFile(path, []byte(`{"state/s1":"x"}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	engine := newTestEngine(t, store, nil, nil)

	snapshot, err := engine.Snapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.State.ToneBias != types.DefaultPersonalityState().ToneBias {
		t.Fatalf("expected default state for corrupt document, got %+v", snapshot.State)
	}
	if _, err := engine.Snapshot(ctx, "typo"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := engine.Close(ctx); err != nil {
		t.Fatalf("close engine: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	want := map[string]any{"state/s1": "x"}
	if diff := cmp.Diff(want, readJSONFile(t, path)); diff != "" {
		t.Fatalf("store changed by inspection (-want +got):\n%s", diff)
	}
}

func TestLastTurnOnDiskWhenDatastoreClosedUnderneath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), storage.DataFileName)
	store, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	engine := newTestEngine(t, store, nil, nil)

	if _, err := engine.Respond(ctx, "s1", "remember the lighthouse"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	// An interrupt makes the datastore close itself before the engine shuts down.
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	if err := engine.Close(ctx); err != nil {
		t.Fatalf("close engine: %v", err)
	}

	reopened, err := storage.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	mem, err := reopened.LoadMemory(ctx, "s1")
	if err != nil || mem == nil {
		t.Fatalf("expected stored memory, got %v, %v", mem, err)
	}
	if len(mem.ShortTerm) != 1 || mem.ShortTerm[0].User != "remember the lighthouse" {
		t.Fatalf("expected last turn on disk, got %+v", mem.ShortTerm)
	}
}

func TestRespondWaitingOnCloseIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	engine := newTestEngine(t, repo, nil, nil)

	s := engine.sessions.get("s1")
	s.mu.Lock()

	respondErr := make(chan error, 1)
	go func() {
		_, err := engine.Respond(ctx, "s1", "too late")
		respondErr <- err
	}()
	closeErr := make(chan error, 1)
	go func() {
		closeErr <- engine.Close(ctx)
	}()
	for !engine.closed.Load() {
		runtime.Gosched()
	}
	s.mu.Unlock()

	if err := <-respondErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := <-closeErr; err != nil {
		t.Fatalf("close: %v", err)
	}
	if state, _ := repo.MemoryStore.LoadState(ctx, "s1"); state != nil {
		t.Fatalf("expected no write after close, got %+v", state)
	}
}
