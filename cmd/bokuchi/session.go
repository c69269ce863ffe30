package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/justyntemme/bokuchi/internal/app"
	"github.com/justyntemme/bokuchi/internal/config"
	"github.com/justyntemme/bokuchi/internal/fs"
	"github.com/justyntemme/bokuchi/internal/recent"
	"github.com/justyntemme/bokuchi/internal/store"
	"github.com/justyntemme/bokuchi/internal/tabs"
)

// session is one CLI invocation's editor with its stores.
type session struct {
	cfg    config.Config
	local  *fs.Local
	db     *store.DB
	recent *recent.Manager
	editor *app.Editor
}

func openSession(ctx context.Context) (*session, error) {
	cfgMgr := config.NewManager()
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Config: using defaults: %v", err)
	}
	if perr := cfgMgr.ParseError(); perr != nil {
		fmt.Printf("Warning: %s is invalid, using defaults (%v)\n", cfgMgr.Path(), perr)
	} else if verr := cfgMgr.ValidationError(); verr != nil {
		fmt.Printf("Warning: %s has out-of-range values, using defaults for them (%v)\n", cfgMgr.Path(), verr)
	}
	cfg := cfgMgr.Get()

	local := fs.NewLocal(newLinePrompter())
	local.MaxFileSize = cfg.Files.MaxFileSize
	local.Extensions = cfg.Files.Extensions

	s := &session{cfg: cfg, local: local}

	var settings store.Settings = store.NewMemory()
	if !flagNoStore {
		path := flagDBPath
		if path == "" {
			path = store.DefaultPath()
		}
		db := store.NewDB()
		if err := db.Open(path); err != nil {
			return nil, fmt.Errorf("open database %s: %w", path, err)
		}
		go db.Start()
		s.db = db
		settings = store.NewSettings(db, true)
		s.recent = recent.NewManager(db, cfg.Recent.MaxEntries, cfg.Recent.PreviewChars)
	}

	s.editor = app.NewEditor(app.Options{
		FS:          local,
		Settings:    settings,
		Recent:      s.recent,
		Config:      cfg,
		EventBuffer: 256,
	})
	s.editor.Restore(ctx)
	return s, nil
}

// close persists the session and waits for queued writes.
func (s *session) close() {
	s.editor.Flush()
	s.printEvents()
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.Sync(ctx); err != nil {
		log.Printf("Store: pending writes not confirmed: %v", err)
	}
	close(s.db.RequestChan)
	s.db.Close()
}

// printEvents reports queued notifications the way the UI would toast them.
func (s *session) printEvents() {
	for {
		select {
		case ev := <-s.editor.Events():
			switch ev.Kind {
			case app.FileSaveFailed, app.FileLoadFailed:
				fmt.Printf("! %s: %v\n", ev.Message, ev.Err)
			case app.FileChangeDetected:
				fmt.Printf("! %s\n", ev.Message)
			default:
				fmt.Printf("  %s\n", ev.Message)
			}
		default:
			return
		}
	}
}

// resolveTab finds a document by 1-based position or id prefix.
func (s *session) resolveTab(ref string) (tabs.Document, error) {
	st := s.editor.State()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(st.Documents) {
			return tabs.Document{}, fmt.Errorf("no tab %d (have %d)", n, len(st.Documents))
		}
		return st.Documents[n-1], nil
	}

	var match []tabs.Document
	for _, d := range st.Documents {
		if strings.HasPrefix(d.ID, ref) {
			match = append(match, d)
		}
	}
	switch len(match) {
	case 0:
		return tabs.Document{}, fmt.Errorf("no tab matches %q", ref)
	case 1:
		return match[0], nil
	}
	return tabs.Document{}, fmt.Errorf("%q matches %d tabs", ref, len(match))
}

// withSession runs fn against an open session and always closes it.
func withSession(fn func(ctx context.Context, s *session) error) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}
