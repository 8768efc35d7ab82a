package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Himanshu718-creater/blog-platform/utils"
)

// URLReferencer reports whether any post still points at a public URL.
type URLReferencer interface {
	ReferencesURL(ctx context.Context, url string) (bool, error)
}

// UploadSweeper periodically deletes uploaded files that no post references.
type UploadSweeper struct {
	dir       string
	urlPrefix string
	ttl       time.Duration
	refs      URLReferencer
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

// NewUploadSweeper sweeps files under dir, mapped to URLs under urlPrefix, once they are older than ttl.
func NewUploadSweeper(dir, urlPrefix string, ttl time.Duration, refs URLReferencer) *UploadSweeper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UploadSweeper{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		ttl:       ttl,
		refs:      refs,
		now:       time.Now,
	}
}

// Start schedules Sweep with a cron spec such as "@every 30m" or "0 3 * * *".
func (s *UploadSweeper) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("upload sweeper already started")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		res, err := s.Sweep(context.Background())
		if err != nil {
			utils.Sugar.Errorw("upload sweep failed", "err", err)
			return
		}
		utils.Sugar.Infow("upload sweep finished", "scanned", res.Scanned, "removed", res.Removed, "failed", res.Failed)
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	utils.Sugar.Infow("upload sweeper scheduled", "spec", spec, "dir", s.dir, "ttl", s.ttl.String())
	return nil
}

// Stop cancels the schedule and waits for a running sweep, or for ctx to expire.
func (s *UploadSweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep removes every regular file under the upload directory that is older than the TTL
// and not referenced by a post. Per-file failures are logged and counted, not returned.
func (s *UploadSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	cutoff := s.now().Add(-s.ttl)

	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == s.dir && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			utils.Sugar.Warnw("upload sweep walk error", "path", p, "err", walkErr)
			res.Failed++
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		res.Scanned++

		info, err := d.Info()
		if err != nil {
			res.Failed++
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		url, err := s.urlFor(p)
		if err != nil {
			res.Failed++
			return nil
		}
		used, err := s.refs.ReferencesURL(ctx, url)
		if err != nil {
			utils.Sugar.Warnw("upload sweep reference check failed", "url", url, "err", err)
			res.Failed++
			return nil
		}
		if used {
			return nil
		}
		if err := os.Remove(p); err != nil {
			utils.Sugar.Warnw("upload sweep remove failed", "path", p, "err", err)
			res.Failed++
			return nil
		}
		utils.Sugar.Debugw("orphan upload removed", "path", p, "url", url)
		res.Removed++
		return nil
	})
	return res, err
}

// urlFor maps a file path under the upload directory to its public URL.
func (s *UploadSweeper) urlFor(p string) (string, error) {
	rel, err := filepath.Rel(s.dir, p)
	if err != nil {
		return "", err
	}
	return path.Join(s.urlPrefix, filepath.ToSlash(rel)), nil
}
