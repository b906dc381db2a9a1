// Package session owns the in-memory working set of normalized documents and
// runs the per-file read and normalize pipeline.
package session

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/mark3labs/oascompare/internal/logger"
	"github.com/mark3labs/oascompare/internal/notify"
	"github.com/mark3labs/oascompare/internal/spec"
	"golang.org/x/sync/errgroup"
)

// Entry is one document of the working set together with the path it was loaded from.
type Entry struct {
	Path     string
	Document *spec.Document
}

// Result is the settlement of one submitted file: either Document or Err is set.
type Result struct {
	Path     string
	Document *spec.Document
	Err      error
}

// Session holds the ordered working set. Every mutation publishes a new
// slice, so a snapshot returned by Documents or Entries never changes.
type Session struct {
	loader      *spec.Loader
	notifier    notify.Notifier
	log         logger.Logger
	concurrency int
	onSettled   func(Result, []*spec.Document)

	entries atomic.Pointer[[]Entry]
}

// Option configures a Session.
type Option func(*Session)

func WithNotifier(n notify.Notifier) Option { return func(s *Session) { s.notifier = n } }
func WithLogger(l logger.Logger) Option     { return func(s *Session) { s.log = l } }

// WithConcurrency bounds how many files are read and normalized at once.
func WithConcurrency(n int) Option { return func(s *Session) { s.concurrency = n } }

// OnSettled registers a hook called once per settled file with the working
// set snapshot taken right after the file was applied. The hook runs on the
// task's goroutine and must be safe for concurrent use.
func OnSettled(fn func(Result, []*spec.Document)) Option {
	return func(s *Session) { s.onSettled = fn }
}

// New returns an empty session that loads files with loader.
func New(loader *spec.Loader, opts ...Option) *Session {
	s := &Session{loader: loader}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = spec.NewLoader()
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.log)
	}
	if s.concurrency <= 0 {
		s.concurrency = runtime.GOMAXPROCS(0)
	}
	empty := []Entry{}
	s.entries.Store(&empty)
	return s
}

// Entries returns the current snapshot of the working set in upload order.
func (s *Session) Entries() []Entry {
	return *s.entries.Load()
}

// Documents returns the documents of the current snapshot in upload order.
func (s *Session) Documents() []*spec.Document {
	entries := s.Entries()
	docs := make([]*spec.Document, len(entries))
	for i, e := range entries {
		docs[i] = e.Document
	}
	return docs
}

func (s *Session) Len() int { return len(s.Entries()) }

// update replaces the working set with fn(current). fn must not modify its argument.
func (s *Session) update(fn func([]Entry) []Entry) []Entry {
	for {
		old := s.entries.Load()
		next := fn(*old)
		if s.entries.CompareAndSwap(old, &next) {
			return next
		}
	}
}

// Add appends doc, loaded from path, to the working set.
func (s *Session) Add(path string, doc *spec.Document) []Entry {
	return s.update(func(cur []Entry) []Entry {
		next := make([]Entry, 0, len(cur)+1)
		next = append(next, cur...)
		return append(next, Entry{Path: path, Document: doc})
	})
}

// Remove drops the document with the given id. It reports whether a document was removed.
func (s *Session) Remove(id string) bool {
	removed := false
	s.update(func(cur []Entry) []Entry {
		removed = false
		next := make([]Entry, 0, len(cur))
		for _, e := range cur {
			if e.Document.ID == id {
				removed = true
				continue
			}
			next = append(next, e)
		}
		return next
	})
	if removed {
		s.notifier.Success("File removed")
	}
	return removed
}

// RemovePath drops every document loaded from path.
func (s *Session) RemovePath(path string) int {
	n := 0
	s.update(func(cur []Entry) []Entry {
		n = 0
		next := make([]Entry, 0, len(cur))
		for _, e := range cur {
			if samePath(e.Path, path) {
				n++
				continue
			}
			next = append(next, e)
		}
		return next
	})
	return n
}

// Ingest loads every path concurrently. A failing file never affects its
// siblings; each failure is reported through the notifier. Results are
// returned in submission order, while the working set receives documents in
// settlement order.
func (s *Session) Ingest(ctx context.Context, paths []string) []Result {
	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			results[i] = s.process(ctx, p, false)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Replace reloads path. On success the new document takes the slot of the
// previous one from the same path, or is appended when there was none; on
// failure the previous one is dropped so the working set only reflects files
// that currently parse.
func (s *Session) Replace(ctx context.Context, path string) Result {
	return s.process(ctx, path, true)
}

func (s *Session) process(ctx context.Context, path string, replace bool) Result {
	log := s.log.With("file", filepath.Base(path))
	res := Result{Path: path}
	doc, err := s.loader.Load(ctx, path)
	var snapshot []Entry
	switch {
	case err != nil:
		res.Err = err
		if replace {
			snapshot = s.update(func(cur []Entry) []Entry { return withoutPath(cur, path) })
		} else {
			snapshot = s.Entries()
		}
		var se *spec.SpecError
		if errors.As(err, &se) {
			log.Debug("file rejected", "code", se.Code)
		}
		s.notifier.Error(err.Error())
	default:
		res.Document = doc
		snapshot = s.update(func(cur []Entry) []Entry {
			if replace {
				return replacePath(cur, Entry{Path: path, Document: doc})
			}
			next := append(make([]Entry, 0, len(cur)+1), cur...)
			return append(next, Entry{Path: path, Document: doc})
		})
		log.Debug("document loaded", "id", doc.ID, "endpoints", len(doc.Endpoints), "schemas", len(doc.Schemas))
		s.notifier.Success("Successfully parsed " + doc.Name)
	}
	if s.onSettled != nil {
		docs := make([]*spec.Document, len(snapshot))
		for i, e := range snapshot {
			docs[i] = e.Document
		}
		s.onSettled(res, docs)
	}
	return res
}

func withoutPath(cur []Entry, path string) []Entry {
	next := make([]Entry, 0, len(cur)+1)
	for _, e := range cur {
		if !samePath(e.Path, path) {
			next = append(next, e)
		}
	}
	return next
}

// replacePath puts e in the slot of the first entry with the same path and
// drops any further ones. Without a match e is appended.
func replacePath(cur []Entry, e Entry) []Entry {
	next := make([]Entry, 0, len(cur)+1)
	placed := false
	for _, old := range cur {
		if !samePath(old.Path, e.Path) {
			next = append(next, old)
			continue
		}
		if !placed {
			next = append(next, e)
			placed = true
		}
	}
	if !placed {
		next = append(next, e)
	}
	return next
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
