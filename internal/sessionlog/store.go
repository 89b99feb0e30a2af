package sessionlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store is an open session log: the header, every parsed entry in file
// order, an id->index lookup, the most recently appended entry's id, and
// the underlying file kept open for fsync-durable appends.
type Store struct {
	path          string
	header        SessionHeader
	entries       []SessionEntry
	indexByID     map[string]int
	currentLeafID *string
	file          *os.File
}

// Path returns the session file's absolute path.
func (s *Store) Path() string { return s.path }

// Header returns the session's header record.
func (s *Store) Header() SessionHeader { return s.header }

// CurrentLeafID returns the id of the most recently appended entry, or nil
// for a session with no entries yet.
func (s *Store) CurrentLeafID() *string { return s.currentLeafID }

// Entries returns every parsed entry, in file order. Callers must not
// mutate the returned slice.
func (s *Store) Entries() []SessionEntry { return s.entries }

// CreateNew starts a brand-new session log for the given absolute working
// directory, writing and fsyncing the header line immediately.
func CreateNew(cwd string) (*Store, error) {
	if !filepath.IsAbs(cwd) {
		return nil, &Error{Kind: KindNonAbsoluteCwd, Value: cwd}
	}

	root := SessionRoot(cwd)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &Error{Kind: KindIO, Path: root, Wrapped: err}
	}

	sessionID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	path := filepath.Join(root, SessionFileName(createdAt, sessionID))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}

	header := newHeader(sessionID, createdAt, cwd)
	line, err := json.Marshal(header)
	if err != nil {
		file.Close()
		return nil, &Error{Kind: KindJSONSerialize, Path: path, Wrapped: err}
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		file.Close()
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}

	return &Store{
		path:      path,
		header:    header,
		indexByID: make(map[string]int),
		file:      file,
	}, nil
}

// Open loads and strictly validates an existing session file, reading every
// line into memory and appending further entries to the same open file
// handle.
func Open(path string) (*Store, error) {
	readFile, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}
	defer readFile.Close()

	scanner := bufio.NewScanner(readFile)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	store := &Store{path: path, indexByID: make(map[string]int)}

	lineNo := 0
	headerSeen := false
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var discriminant struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &discriminant); err != nil {
			return nil, &Error{Kind: KindJSONLineParse, Path: path, Line: lineNo, Wrapped: err}
		}

		switch discriminant.Type {
		case "session":
			if headerSeen {
				return nil, &Error{Kind: KindInvalidHeaderRecord, Path: path, Line: lineNo}
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			var header SessionHeader
			if err := dec.Decode(&header); err != nil {
				return nil, &Error{Kind: KindInvalidHeaderRecord, Path: path, Line: lineNo}
			}
			if header.Version != SchemaVersion {
				return nil, &Error{Kind: KindUnsupportedVersion, Path: path, Line: lineNo, Found: header.Version}
			}
			if !filepath.IsAbs(header.Cwd) {
				return nil, &Error{Kind: KindNonAbsoluteCwd, Path: path, Line: lineNo, Value: header.Cwd}
			}
			store.header = header
			headerSeen = true

		case "entry":
			if !headerSeen {
				return nil, &Error{Kind: KindMissingHeader, Path: path}
			}
			var entry SessionEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return nil, &Error{Kind: KindInvalidEntryRecord, Path: path, Line: lineNo}
			}
			if _, err := time.Parse(time.RFC3339, entry.Ts); err != nil {
				return nil, &Error{Kind: KindInvalidTimestamp, Path: path, Line: lineNo, Field: "ts", Value: entry.Ts}
			}
			if _, exists := store.indexByID[entry.ID]; exists {
				return nil, &Error{Kind: KindDuplicateEntryID, Path: path, Line: lineNo, Value: entry.ID}
			}
			if entry.ParentID != nil {
				if _, exists := store.indexByID[*entry.ParentID]; !exists {
					return nil, &Error{Kind: KindDanglingParentID, Path: path, Line: lineNo, Value: *entry.ParentID}
				}
			}

			store.indexByID[entry.ID] = len(store.entries)
			store.entries = append(store.entries, entry)
			leafID := entry.ID
			store.currentLeafID = &leafID

		default:
			return nil, &Error{Kind: KindInvalidEntryRecord, Path: path, Line: lineNo}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}
	if !headerSeen {
		return nil, &Error{Kind: KindMissingHeader, Path: path}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: path, Wrapped: err}
	}
	store.file = file

	return store, nil
}

// Append writes a new entry whose parent is the session's current leaf,
// fsyncs it, and advances the current leaf to the new entry.
func (s *Store) Append(kind EntryKind) (SessionEntry, error) {
	return s.AppendChild(kind, s.currentLeafID)
}

// AppendChild writes a new entry under an explicit parent id, allowing a
// caller to branch off an earlier point in the DAG (e.g. replaying from a
// prior leaf before continuing).
func (s *Store) AppendChild(kind EntryKind, parentID *string) (SessionEntry, error) {
	if parentID != nil {
		if _, exists := s.indexByID[*parentID]; !exists {
			return SessionEntry{}, &Error{Kind: KindDanglingParentID, Path: s.path, Value: *parentID}
		}
	}

	entry := SessionEntry{
		RecordType: "entry",
		ID:         uuid.NewString(),
		ParentID:   parentID,
		Ts:         time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return SessionEntry{}, &Error{Kind: KindJSONSerialize, Path: s.path, Wrapped: err}
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return SessionEntry{}, &Error{Kind: KindIO, Path: s.path, Wrapped: err}
	}
	if err := s.file.Sync(); err != nil {
		return SessionEntry{}, &Error{Kind: KindIO, Path: s.path, Wrapped: err}
	}

	s.indexByID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, entry)
	leafID := entry.ID
	s.currentLeafID = &leafID

	return entry, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
