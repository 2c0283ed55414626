// Package build exports CMS collections to static JSON documents.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"scalesite/internal/app"
	domainbuild "scalesite/internal/domain/build"
	"scalesite/internal/domain/content"
	"scalesite/internal/domain/site"
	"scalesite/internal/feed"
	"scalesite/internal/query"
	"scalesite/internal/render"
)

type Builder struct {
	Source   feed.Lister
	Renderer *render.Renderer
	OutDir   string
	PageSize int
	Workers  int
	// ConfigKey is folded into every fingerprint; change it when settings
	// that affect output (such as the media base URL) change.
	ConfigKey string
	Log       *zap.Logger
	Now       func() time.Time
}

type Warning struct {
	Slug string
	Msg  string
}

type Result struct {
	Collection string
	Items      int
	Written    int
	Unchanged  int
	Warnings   []Warning
}

// Document is the on-disk shape of one exported record.
type Document struct {
	Item        content.Content         `json:"item"`
	Path        string                  `json:"path"`
	HTML        string                  `json:"html"`
	TOC         []render.Heading        `json:"toc"`
	Fingerprint domainbuild.Fingerprint `json:"fingerprint"`
}

type Index struct {
	Collection  string                  `json:"collection"`
	Total       int                     `json:"total"`
	Items       []content.Content       `json:"items"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Fingerprint domainbuild.Fingerprint `json:"fingerprint"`
}

type job struct {
	item  content.Content
	route site.Route
}

type outcome struct {
	slug    string
	written bool
	err     error
}

// Run drains the collection for v and writes its documents. Files whose
// fingerprint matches the one already on disk are left alone.
func (b *Builder) Run(ctx context.Context, v content.Variant) (*Result, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("collection", v.Info().Collection))
	f := feed.New(b.Source, query.Request{Variant: v, PageSize: b.pageSize()}, log)
	items, err := f.Drain(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", v.Info().Collection, err)
	}

	res := &Result{Collection: v.Info().Collection, Items: len(items)}
	rb := &app.RouteBuilder{}

	seen := make(map[string]struct{}, len(items))
	jobs := make([]job, 0, len(items))
	for _, it := range items {
		if it.Slug == "" {
			res.Warnings = append(res.Warnings, Warning{Msg: fmt.Sprintf("record %d has no slug, skipped", it.ID)})
			continue
		}
		r := rb.BuildDetailRoute(v, it.Slug)
		if _, dup := seen[r.OutPath]; dup {
			res.Warnings = append(res.Warnings, Warning{Slug: it.Slug, Msg: "duplicate slug, skipped"})
			continue
		}
		seen[r.OutPath] = struct{}{}
		jobs = append(jobs, job{item: it, route: r})
	}

	var firstErr error
	for o := range b.runPool(ctx, jobs) {
		switch {
		case o.err != nil:
			if firstErr == nil {
				firstErr = fmt.Errorf("export %s: %w", o.slug, o.err)
			}
		case o.written:
			res.Written++
		default:
			res.Unchanged++
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written, err := b.writeIndex(rb.BuildIndexRoute(v), items)
	if err != nil {
		return nil, fmt.Errorf("export index: %w", err)
	}
	if written {
		res.Written++
	} else {
		res.Unchanged++
	}

	for _, w := range res.Warnings {
		log.Warn("export warning", zap.String("slug", w.Slug), zap.String("msg", w.Msg))
	}
	log.Info("export done",
		zap.Int("items", res.Items),
		zap.Int("written", res.Written),
		zap.Int("unchanged", res.Unchanged),
	)
	return res, nil
}

func (b *Builder) runPool(ctx context.Context, jobs []job) <-chan outcome {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	in := make(chan job)
	out := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range in {
				written, err := b.writeDocument(j)
				out <- outcome{slug: j.item.Slug, written: written, err: err}
			}
		}()
	}

	go func() {
		defer close(in)
		for _, j := range jobs {
			select {
			case in <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (b *Builder) writeDocument(j job) (bool, error) {
	itemJSON, err := json.Marshal(j.item)
	if err != nil {
		return false, err
	}
	fp := domainbuild.NewFingerprint(itemJSON, b.ConfigKey)
	full := filepath.Join(b.OutDir, j.route.OutPath)
	if sameFingerprint(full, fp) {
		return false, nil
	}

	r := b.Renderer
	if r == nil {
		r = render.New("")
	}
	rendered, err := r.Body(j.item.Body)
	if err != nil {
		return false, fmt.Errorf("render: %w", err)
	}
	doc := Document{
		Item:        j.item,
		Path:        j.route.Path,
		HTML:        rendered.HTML,
		TOC:         rendered.TOC,
		Fingerprint: fp,
	}
	return true, writeJSON(full, doc)
}

func (b *Builder) writeIndex(r site.Route, items []content.Content) (bool, error) {
	summaries := make([]content.Content, 0, len(items))
	for _, it := range items {
		it.Body = content.Body{}
		it.Related = []content.Content{}
		summaries = append(summaries, it)
	}
	listJSON, err := json.Marshal(summaries)
	if err != nil {
		return false, err
	}
	fp := domainbuild.NewFingerprint(listJSON, b.ConfigKey)
	full := filepath.Join(b.OutDir, r.OutPath)
	if sameFingerprint(full, fp) {
		return false, nil
	}
	idx := Index{
		Collection:  r.Variant.Info().Collection,
		Total:       len(summaries),
		Items:       summaries,
		GeneratedAt: b.now(),
		Fingerprint: fp,
	}
	return true, writeJSON(full, idx)
}

func (b *Builder) pageSize() int {
	if b.PageSize <= 0 {
		return query.MaxPageSize
	}
	return b.PageSize
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now().UTC()
	}
	return time.Now().UTC()
}

// sameFingerprint reports whether the document at path was produced from
// the same inputs. Missing or unreadable files never match.
func sameFingerprint(path string, fp domainbuild.Fingerprint) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var existing struct {
		Fingerprint domainbuild.Fingerprint `json:"fingerprint"`
	}
	if json.Unmarshal(raw, &existing) != nil {
		return false
	}
	return existing.Fingerprint.RenderHash != "" && existing.Fingerprint.RenderHash == fp.RenderHash
}

func writeJSON(full string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return nil
}
