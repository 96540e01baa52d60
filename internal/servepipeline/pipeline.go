// Package servepipeline implements the hot path described in the core
// design: multi-tier cache lookup, writer-slot-guarded repository refresh
// and config-file rescan on miss, and post-lookup template rendering.
package servepipeline

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/configsrv/hoganserver/internal/apperr"
	"github.com/configsrv/hoganserver/internal/configloader"
	"github.com/configsrv/hoganserver/internal/configmodel"
	"github.com/configsrv/hoganserver/internal/gitrepo"
	"github.com/configsrv/hoganserver/internal/headresolver"
	"github.com/configsrv/hoganserver/internal/metrics"
	"github.com/configsrv/hoganserver/internal/render"
	"github.com/configsrv/hoganserver/internal/storage"
	"github.com/configsrv/hoganserver/internal/writerslot"
)

var hexShaPattern = regexp.MustCompile(`^[a-f0-9]+$`)

// IsHexSha reports whether ref looks like a commit id rather than a
// branch name, per the spec's "all-hex means sha" heuristic.
func IsHexSha(ref string) bool {
	return ref != "" && hexShaPattern.MatchString(ref)
}

// DefaultWriterTimeout bounds writer-slot acquisition on the hot path.
const DefaultWriterTimeout = 20 * time.Second

// DefaultEnvPatternTemplate is substituted with the requested environment
// name (regexp-escaped) to build the per-environment file filter.
const DefaultEnvPatternTemplate = `(?i)^config\.%s\.json$`

// Pipeline wires together the multi-tier cache, the repository
// coordinator, the writer slot and the head resolver into the request
// handling core.
type Pipeline struct {
	Cache             *storage.MultiTier
	Coordinator       gitrepo.Coordinator
	Slot              *writerslot.Slot
	Resolver          *headresolver.Resolver
	Metrics           metrics.Sink
	Logger            *zap.Logger
	WriterTimeout     time.Duration
	EnvPatternTemplate string
	EnvironmentsFilter string
	AllowFetch        bool
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

func (p *Pipeline) writerTimeout() time.Duration {
	if p.WriterTimeout > 0 {
		return p.WriterTimeout
	}
	return DefaultWriterTimeout
}

func (p *Pipeline) envPatternTemplate() string {
	if p.EnvPatternTemplate != "" {
		return p.EnvPatternTemplate
	}
	return DefaultEnvPatternTemplate
}

// ResolveRef turns a sha-or-branch path segment into a commit id, via the
// head resolver when it is not already hex.
func (p *Pipeline) ResolveRef(ctx context.Context, ref string) (string, error) {
	if IsHexSha(ref) {
		return ref, nil
	}
	sha, err := p.Resolver.Resolve(ctx, ref, p.AllowFetch)
	if err != nil {
		return "", err
	}
	return sha, nil
}

// ResolveBranchHead always treats ref as a branch name, unlike ResolveRef
// which applies the hex-means-sha heuristic. It backs GET /heads/{branch}.
func (p *Pipeline) ResolveBranchHead(ctx context.Context, branch string) (string, error) {
	sha, err := p.Resolver.Resolve(ctx, branch, p.AllowFetch)
	if err != nil {
		return "", err
	}
	return configmodel.NormalizeSha(sha), nil
}

// GetEnvironment runs the seven-step hot path for a single environment,
// returning the merged Environment and the normalized cache-key sha.
func (p *Pipeline) GetEnvironment(ctx context.Context, ref, env string) (configmodel.Environment, string, error) {
	sha, err := p.ResolveRef(ctx, ref)
	if err != nil {
		return configmodel.Environment{}, "", err
	}
	key := configmodel.NormalizeSha(sha)

	if e, ok, err := p.readEnvDegraded(ctx, env, key); err != nil {
		return configmodel.Environment{}, "", err
	} else if ok {
		p.metricSink().IncCacheResult("pipeline", "hit")
		return e, key, nil
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, p.writerTimeout())
	release, err := p.Slot.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		return configmodel.Environment{}, "", err
	}
	defer release()
	p.metricSink().SetWriterSlotHeld(true)
	defer p.metricSink().SetWriterSlotHeld(false)

	if e, ok, err := p.readEnvDegraded(ctx, env, key); err != nil {
		return configmodel.Environment{}, "", err
	} else if ok {
		p.metricSink().IncCacheResult("pipeline", "hit-after-wait")
		return e, key, nil
	}

	fullSha, err := p.Coordinator.Refresh(ctx, sha, p.AllowFetch)
	if err != nil {
		p.metricSink().IncGitOperation("refresh", "error")
		return configmodel.Environment{}, "", err
	}
	p.metricSink().IncGitOperation("refresh", "ok")
	_ = fullSha // the cache key stays the requested (possibly abbreviated) sha

	filter := buildEnvFilter(env, p.envPatternTemplate())
	envs, err := p.Coordinator.Find(filter)
	if err != nil {
		return configmodel.Environment{}, "", apperr.NewGitError(fmt.Sprintf("scan configs for %s", env), err)
	}

	var found *configmodel.Environment
	for i := range envs {
		if envs[i].Name == env {
			found = &envs[i]
			break
		}
	}
	if found == nil {
		return configmodel.Environment{}, "", &apperr.UnknownEnvironment{Sha: key, Env: env}
	}

	if err := p.Cache.WriteEnv(ctx, env, key, *found); err != nil {
		p.logger().Warn("cache write failed after producing environment", zap.Error(err), zap.String("env", env), zap.String("sha", key))
	}

	p.metricSink().IncCacheResult("pipeline", "miss")
	return *found, key, nil
}

// GetListing runs the listing variant of the hot path.
func (p *Pipeline) GetListing(ctx context.Context, ref string) (configmodel.Listing, string, error) {
	sha, err := p.ResolveRef(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	key := configmodel.NormalizeSha(sha)

	if l, ok, err := p.readListingDegraded(ctx, key); err != nil {
		return nil, "", err
	} else if ok {
		p.metricSink().IncCacheResult("pipeline", "hit")
		return l, key, nil
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, p.writerTimeout())
	release, err := p.Slot.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		return nil, "", err
	}
	defer release()

	if l, ok, err := p.readListingDegraded(ctx, key); err != nil {
		return nil, "", err
	} else if ok {
		return l, key, nil
	}

	if _, err := p.Coordinator.Refresh(ctx, sha, p.AllowFetch); err != nil {
		return nil, "", err
	}

	envs, err := p.Coordinator.Find(p.listingFilter())
	if err != nil {
		return nil, "", apperr.NewGitError("scan configs for listing", err)
	}
	listing := configloader.ToListing(envs)

	if err := p.Cache.WriteListing(ctx, key, listing); err != nil {
		p.logger().Warn("cache write failed after producing listing", zap.Error(err), zap.String("sha", key))
	}

	p.metricSink().IncCacheResult("pipeline", "miss")
	return listing, key, nil
}

// Render fetches env at ref and executes templateText against it. The
// render step runs outside the writer slot and never invalidates the
// environment's cache entry on failure.
func (p *Pipeline) Render(ctx context.Context, ref, env, templateText string) (string, error) {
	e, _, err := p.GetEnvironment(ctx, ref, env)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := render.Render(templateText, e.ConfigData)
	p.metricSink().ObserveRenderDuration(env, time.Since(start))
	if err != nil {
		if it, ok := err.(*apperr.InvalidTemplate); ok {
			it.Env = env
		}
		return "", err
	}
	return out, nil
}

func (p *Pipeline) readEnvDegraded(ctx context.Context, env, key string) (configmodel.Environment, bool, error) {
	e, ok, err := p.Cache.ReadEnv(ctx, env, key)
	if err != nil {
		p.logger().Warn("cache read degraded to miss", zap.Error(err), zap.String("env", env), zap.String("sha", key))
		return configmodel.Environment{}, false, nil
	}
	return e, ok, nil
}

func (p *Pipeline) readListingDegraded(ctx context.Context, key string) (configmodel.Listing, bool, error) {
	l, ok, err := p.Cache.ReadListing(ctx, key)
	if err != nil {
		p.logger().Warn("cache read degraded to miss", zap.Error(err), zap.String("sha", key))
		return nil, false, nil
	}
	return l, ok, nil
}

func (p *Pipeline) metricSink() metrics.Sink {
	if p.Metrics != nil {
		return p.Metrics
	}
	return noopSink{}
}

// listingFilter compiles the operator-supplied --environments-filter for
// the listing path, falling back to the catch-all pattern when unset or
// invalid.
func (p *Pipeline) listingFilter() *regexp.Regexp {
	if p.EnvironmentsFilter == "" {
		return regexp.MustCompile(gitrepo.AllEnvironmentsPattern)
	}
	re, err := regexp.Compile(p.EnvironmentsFilter)
	if err != nil {
		return regexp.MustCompile(gitrepo.AllEnvironmentsPattern)
	}
	return re
}

func buildEnvFilter(env, template string) *regexp.Regexp {
	pattern := fmt.Sprintf(template, regexp.QuoteMeta(env))
	re, err := regexp.Compile(pattern)
	if err != nil {
		return regexp.MustCompile(gitrepo.AllEnvironmentsPattern)
	}
	return re
}

// noopSink discards metrics when none is configured, so Pipeline never
// needs a nil check at call sites.
type noopSink struct{}

func (noopSink) IncRequest(route, method, status string)                            {}
func (noopSink) ObserveRequestDuration(route, method, status string, d time.Duration) {}
func (noopSink) IncCacheResult(tier, outcome string)                                {}
func (noopSink) ObserveRenderDuration(env string, d time.Duration)                  {}
func (noopSink) SetWriterSlotHeld(held bool)                                        {}
func (noopSink) IncGitOperation(op, outcome string)                                 {}
