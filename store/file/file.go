// Package file keeps registrations in a YAML document under the state directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/world-in-progress/hermes/store"
	"gopkg.in/yaml.v3"
)

// FileName is the registration document inside the state directory.
const FileName = "registrations.yaml"

type (
	FileStore struct {
		path string
		mu   sync.Mutex
	}

	document struct {
		Protocols map[string]*store.Protocol `yaml:"protocols"`
	}
)

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) Get(_ context.Context, name string) (*store.Protocol, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return nil, err
	}
	p, ok := doc.Protocols[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	p.Name = name
	return p, nil
}

func (fs *FileStore) Put(_ context.Context, p *store.Protocol) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	record := *p
	record.UpdatedAt = time.Now().UTC()
	doc.Protocols[p.Name] = &record
	return fs.save(doc)
}

func (fs *FileStore) Delete(_ context.Context, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Protocols[name]; !ok {
		return nil
	}
	delete(doc.Protocols, name)
	return fs.save(doc)
}

func (fs *FileStore) List(_ context.Context) ([]store.Protocol, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return nil, err
	}
	list := make([]store.Protocol, 0, len(doc.Protocols))
	for name, p := range doc.Protocols {
		p.Name = name
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (fs *FileStore) Close(context.Context) error { return nil }

func (fs *FileStore) load() (*document, error) {
	doc := &document{}
	data, err := os.ReadFile(fs.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", fs.path, err)
		}
	}
	if doc.Protocols == nil {
		doc.Protocols = make(map[string]*store.Protocol)
	}
	return doc, nil
}

func (fs *FileStore) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o750); err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}
