package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opal-lang/seqscope/core/binding"
	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/resources"
	"github.com/opal-lang/seqscope/core/script"
)

// Workspace layout.
const (
	ResourcesFile = "resources.json"
	SequencesDir  = "sequences"
)

// ErrConflict is returned by Overwrite when the file on disk no longer
// holds the sequence the edit started from.
var ErrConflict = errors.New("sequence changed on disk")

// ErrMisplaced is returned by Load for a sequence document whose file name
// is not its id.
var ErrMisplaced = errors.New("sequence file name does not match its id")

// Store is a workspace directory. It loads snapshots and persists edits.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore opens the workspace at dir. A nil logger discards.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the workspace directory.
func (s *Store) Dir() string { return s.dir }

// SequencePath is the document path for a sequence id.
func (s *Store) SequencePath(id string) string {
	return filepath.Join(s.dir, SequencesDir, id+".json")
}

// Load reads the whole workspace into a snapshot with every name set
// built. A missing resources.json is an empty farm. Each sequence must live
// in sequences/<id>.json.
func (s *Store) Load() (*resources.Index, error) {
	farm := &Farm{}
	path := filepath.Join(s.dir, ResourcesFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		farm, err = ParseResources(data)
		if err != nil {
			return nil, &DocumentError{Path: path, Err: err}
		}
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("no resources document", "path", path)
	default:
		return nil, err
	}

	seqs, err := s.loadSequences()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded workspace",
		"dir", s.dir, "tools", len(farm.Tools), "points", len(farm.Points), "sequences", len(seqs))
	return binding.Reindex(farm.Builder().Build(), seqs...), nil
}

func (s *Store) loadSequences() ([]*script.Sequence, error) {
	dir := filepath.Join(s.dir, SequencesDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	seqs := make([]*script.Sequence, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		seq, err := ReadSequence(path)
		if err != nil {
			return nil, err
		}
		// Overwrite writes to SequencePath(id), so the file name must be the id.
		if want := seq.ID + ".json"; name != want {
			return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: sequence id %q belongs in %s", ErrMisplaced, seq.ID, want)}
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

// ReadSequence parses the sequence document at path.
func ReadSequence(path string) (*script.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seq, err := ParseSequence(data)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}
	return seq, nil
}

// Overwrite writes updated over original's document. The write is refused
// with ErrConflict if the file no longer encodes original, so an edit
// resolved against a stale file never clobbers a newer one.
func (s *Store) Overwrite(ctx context.Context, original, updated *script.Sequence) error {
	invariant.NotNil(original, "original")
	invariant.NotNil(updated, "updated")
	invariant.Precondition(original.ID == updated.ID, "overwrite changes sequence id %q to %q", original.ID, updated.ID)

	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.SequencePath(updated.ID)
	if err := s.checkUnchanged(path, original); err != nil {
		return err
	}

	data, err := EncodeSequence(updated)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	s.logger.Debug("wrote sequence", "path", path, "variables", len(updated.Items()))
	return nil
}

func (s *Store) checkUnchanged(path string, original *script.Sequence) error {
	onDisk, err := ReadSequence(path)
	if errors.Is(err, fs.ErrNotExist) {
		// A new sequence; nothing to conflict with.
		return nil
	}
	if err != nil {
		return err
	}
	want, err := script.Encode(original)
	if err != nil {
		return err
	}
	got, err := script.Encode(onDisk)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return &DocumentError{Path: path, Err: ErrConflict}
	}
	return nil
}

// writeFileAtomic replaces path through a rename so readers (and the
// watcher) never see a partial document.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".seqscope-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
