// Package content implements the "content" endpoint: links to packages under the
// project's content root that either reveal or edit the asset.
package content

import (
	"errors"
	"fmt"
	"sync"

	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/core/threading"
	"github.com/world-in-progress/hermes/uri"
)

// Name is the endpoint name, as in hunreal://content/Game/Map.
const Name = "content"

// EditSuffix turns a reveal link into an edit link.
const EditSuffix = "?edit"

var ErrAssetNotFound = errors.New("couldn't find any assets")

type Endpoint struct {
	actions Actions

	mu      sync.Mutex
	index   *Index
	// loading stays set until the index is installed and the queue is drained
	loading bool
	pending []uri.Request
}

func NewEndpoint(actions Actions) *Endpoint {
	return &Endpoint{actions: actions}
}

// Load indexes root in the background. Requests arriving meanwhile are queued and replayed
// in order once the index is ready. done, when set, receives the indexing result.
func (e *Endpoint) Load(root string, done func(error)) {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()
	logger.Debug("indexing content under %s", root)

	threading.GoSafe(func() {
		idx, err := BuildIndex(root)
		if err != nil {
			logger.Error("failed to index content under %s: %v", root, err)
			idx = &Index{root: root, assets: map[string]Asset{}}
		} else {
			logger.Info("indexed %d packages under %s", idx.Len(), root)
		}
		e.SetIndex(idx)
		if done != nil {
			done(err)
		}
	})
}

// SetIndex installs idx and processes any requests queued while loading. Requests that
// arrive during the replay join the end of the queue, so they run in arrival order.
func (e *Endpoint) SetIndex(idx *Index) {
	e.mu.Lock()
	e.index = idx
	e.loading = true
	e.mu.Unlock()

	for {
		e.mu.Lock()
		requests := e.pending
		e.pending = nil
		if len(requests) == 0 {
			e.loading = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		logger.Debug("processing %d pending content requests", len(requests))
		for _, req := range requests {
			if err := e.handle(idx, req); err != nil {
				logger.Warn("pending request for %s: %v", req.Path, err)
			}
		}
	}
}

func (e *Endpoint) HandleRequest(path string, query map[string]string) error {
	req := uri.Request{Endpoint: Name, Path: path, Query: query}

	e.mu.Lock()
	if e.loading || e.index == nil {
		logger.Debug("received request for %s while loading the content index, putting in queue", path)
		e.pending = append(e.pending, req)
		e.mu.Unlock()
		return nil
	}
	idx := e.index
	e.mu.Unlock()

	return e.handle(idx, req)
}

func (e *Endpoint) handle(idx *Index, req uri.Request) error {
	var err error
	if asset, ok := idx.Lookup(req.Path); ok {
		if req.Has("edit") {
			err = e.actions.Edit(asset)
		} else {
			err = e.actions.Reveal(asset)
		}
	} else {
		logger.Error("couldn't find any assets for %s", req.Path)
		err = fmt.Errorf("%s: %w", req.Path, ErrAssetNotFound)
	}

	if focusErr := e.actions.Focus(); focusErr != nil {
		logger.Warn("failed to focus the editor: %v", focusErr)
	}
	return err
}

// Pending reports how many requests wait for the index.
func (e *Endpoint) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// URIs returns one link per distinct package, newline separated, ready for the clipboard.
func URIs(scheme string, packages []string, edit bool) string {
	suffix := ""
	if edit {
		suffix = EditSuffix
	}
	return uri.JoinURIs(scheme, Name, packages, suffix)
}
