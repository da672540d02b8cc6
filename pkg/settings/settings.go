package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

// ErrNotExists is returned by Load when nothing was saved under the key,
// or when the stored content cannot be decoded. Callers treat both the
// same way: fall back to defaults.
var ErrNotExists = errors.New("settings: data not exists")

// Service hands out key/value stores backed by some medium.
type Service interface {
	NewStore(prefix, id, tag string) Store
}

// Store persists a single JSON-encodable value.
type Store interface {
	Save(data any) error
	Load(data any) error
}

// JSONFileService keeps each store in its own JSON file under baseDir.
type JSONFileService struct {
	baseDir string
}

func NewJSONFileService(baseDir string) *JSONFileService {
	return &JSONFileService{baseDir: baseDir}
}

func (s *JSONFileService) NewStore(prefix, id, tag string) Store {
	return &jsonFileStore{
		service: s,
		key:     prefix + ":" + id + ":" + tag,
	}
}

type jsonFileStore struct {
	service *JSONFileService
	key     string
}

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *jsonFileStore) filePath() string {
	safe := keySanitizer.ReplaceAllString(s.key, "_")
	return filepath.Join(s.service.baseDir, safe+".json")
}

// Save writes atomically: encode, write to a temp file, rename over.
func (s *jsonFileStore) Save(data any) error {
	if err := os.MkdirAll(s.service.baseDir, 0o755); err != nil {
		return errors.Wrap(err, "settings: mkdir")
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "settings: marshal")
	}

	path := s.filePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "settings: write")
	}
	return os.Rename(tmp, path)
}

// Load fills data from the stored file. Corrupt or missing content maps
// to ErrNotExists so layouts quietly fall back to defaults.
func (s *jsonFileStore) Load(data any) error {
	b, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExists
		}
		return errors.Wrap(err, "settings: read")
	}
	if len(b) == 0 {
		return ErrNotExists
	}
	if err := json.Unmarshal(b, data); err != nil {
		return ErrNotExists
	}
	return nil
}

// MemoryService is an in-memory Service for tests.
type MemoryService struct {
	values map[string][]byte
}

func NewMemoryService() *MemoryService {
	return &MemoryService{values: make(map[string][]byte)}
}

func (s *MemoryService) NewStore(prefix, id, tag string) Store {
	return &memoryStore{service: s, key: prefix + ":" + id + ":" + tag}
}

type memoryStore struct {
	service *MemoryService
	key     string
}

func (s *memoryStore) Save(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.service.values[s.key] = b
	return nil
}

func (s *memoryStore) Load(data any) error {
	b, ok := s.service.values[s.key]
	if !ok {
		return ErrNotExists
	}
	if err := json.Unmarshal(b, data); err != nil {
		return ErrNotExists
	}
	return nil
}
