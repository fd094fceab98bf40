package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/keshon/datastore"

	"github.com/easeaico/project-pneuma/internal/types"
)

var errWriteRejected = errors.New("datastore rejected write")

// FileStore keeps every session document in one JSON file.
// Every write is flushed to disk before it returns. The datastore installs its own
// SIGINT/SIGTERM handler which closes the store without a final save, so nothing may
// wait for Close to reach the disk.
type FileStore struct {
	ds   *datastore.DataStore
	path string
}

// OpenFile opens or creates the store at path. An unreadable file is moved aside
// and a fresh store is started.
func OpenFile(path string) (*FileStore, error) {
	ds, err := datastore.New(path)
	if err != nil {
		if !isCorruptFile(path) {
			return nil, fmt.Errorf("failed to open datastore: %w", err)
		}
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		slog.Warn("datastore file is corrupt, starting fresh", "path", path, "moved_to", aside, "error", err.Error())
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, fmt.Errorf("failed to move corrupt datastore aside: %w", renameErr)
		}
		ds, err = datastore.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open datastore: %w", err)
		}
	}
	return &FileStore{ds: ds, path: path}, nil
}

func isCorruptFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return !json.Valid(data)
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) get(ctx context.Context, kind, sessionID string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, ok := s.ds.Get(documentKey(kind, sessionID))
	if !ok || value == nil {
		return nil, false, nil
	}
	// Values read back from disk are generic maps; re-encode before decoding.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s document for session %s: %w: %w", kind, sessionID, ErrCorrupt, err)
	}
	return raw, true, nil
}

func (s *FileStore) put(ctx context.Context, kind, sessionID string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(doc, kind, sessionID)
	if err != nil {
		return err
	}
	key := documentKey(kind, sessionID)
	s.ds.Add(key, json.RawMessage(raw))
	// Add drops writes silently when the store is closed or over its memory limit.
	value, _ := s.ds.Get(key)
	if stored, ok := value.(json.RawMessage); !ok || !bytes.Equal(stored, raw) {
		return fmt.Errorf("failed to write %s document for session %s: %w", kind, sessionID, errWriteRejected)
	}
	return s.Flush()
}

func (s *FileStore) LoadState(ctx context.Context, sessionID string) (*types.PersonalityState, error) {
	raw, ok, err := s.get(ctx, kindState, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.PersonalityState](raw, kindState, sessionID)
}

func (s *FileStore) SaveState(ctx context.Context, sessionID string, state types.PersonalityState) error {
	return s.put(ctx, kindState, sessionID, state)
}

func (s *FileStore) LoadMemory(ctx context.Context, sessionID string) (*types.MemoryDocument, error) {
	raw, ok, err := s.get(ctx, kindMemory, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.MemoryDocument](raw, kindMemory, sessionID)
}

func (s *FileStore) SaveMemory(ctx context.Context, sessionID string, doc types.MemoryDocument) error {
	return s.put(ctx, kindMemory, sessionID, doc)
}

func (s *FileStore) LoadConversations(ctx context.Context, sessionID string) (*types.ConversationDocument, error) {
	raw, ok, err := s.get(ctx, kindConversations, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return decodeDocument[types.ConversationDocument](raw, kindConversations, sessionID)
}

func (s *FileStore) SaveConversations(ctx context.Context, sessionID string, doc types.ConversationDocument) error {
	return s.put(ctx, kindConversations, sessionID, doc)
}

// Flush writes pending documents to disk.
func (s *FileStore) Flush() error {
	if err := s.ds.SaveToFile(); err != nil {
		return fmt.Errorf("failed to flush datastore: %w", err)
	}
	return nil
}

// Close stops the autosave loop and writes the file once more.
// It returns nil without saving when the datastore was already closed by a signal.
func (s *FileStore) Close() error {
	if err := s.ds.Close(); err != nil {
		return fmt.Errorf("failed to close datastore: %w", err)
	}
	return nil
}
