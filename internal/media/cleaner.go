package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/pkg/logger"
)

// CleanupWarning reports a media object that could not be removed. It is
// never returned as an error: the data mutation it accompanies still counts.
type CleanupWarning struct {
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
	Err         error  `json:"-"`
}

func (w CleanupWarning) String() string {
	return fmt.Sprintf("media cleanup of %s failed: %v", w.ReferenceID, w.Err)
}

// Cleaner deletes the media object behind a stored image URL.
type Cleaner struct {
	host   Host
	log    *zap.Logger
	onFail func(CleanupWarning)
}

func NewCleaner(host Host, log *zap.Logger) *Cleaner {
	return &Cleaner{host: host, log: logger.OrNop(log).With(zap.String("component", "media"))}
}

// OnFailure registers a hook called for every failed cleanup (metrics).
func (c *Cleaner) OnFailure(fn func(CleanupWarning)) {
	c.onFail = fn
}

// DeleteMedia removes the object referenced by url. URLs without a reference
// id are skipped. Failures are logged and handed back as a warning.
func (c *Cleaner) DeleteMedia(ctx context.Context, url string) *CleanupWarning {
	ref, ok := ExtractReferenceID(url)
	if !ok {
		c.log.Debug("no media reference in url, skipping cleanup", zap.String("url", url))
		return nil
	}
	if c.host == nil {
		return c.fail(url, ref, ErrNotConfigured)
	}
	if err := c.host.DeleteByReference(ctx, ref); err != nil {
		return c.fail(url, ref, err)
	}
	c.log.Info("media deleted", zap.String("reference_id", ref))
	return nil
}

func (c *Cleaner) fail(url, ref string, err error) *CleanupWarning {
	w := CleanupWarning{URL: url, ReferenceID: ref, Err: err}
	c.log.Warn("media cleanup failed",
		zap.String("url", url),
		zap.String("reference_id", ref),
		zap.Error(err),
	)
	if c.onFail != nil {
		c.onFail(w)
	}
	return &w
}
