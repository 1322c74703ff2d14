package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/httputil"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Runner executes renders with caching. It holds no per-render state, so
// one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Load reads the tree at path like [LoadContext]. URL sources go through
// the runner's cache unless refresh is set.
func (r *Runner) Load(ctx context.Context, path string, stdin io.Reader, refresh bool) (*orgtree.Entity, error) {
	client := httputil.NewClient(r.Cache, r.Logger)
	client.Refresh = refresh
	return LoadContext(ctx, path, stdin, client)
}

// Render draws tree with the collapse state in opts and renders every
// requested format. Artifacts are served from the cache when all formats
// are present.
func (r *Runner) Render(ctx context.Context, tree *orgtree.Entity, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	res, err := r.render(ctx, tree, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered chart",
		"formats", opts.Formats,
		"visible", res.Stats.Visible,
		"cached", res.CacheHit,
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) render(ctx context.Context, tree *orgtree.Entity, opts Options) (*Result, error) {
	hash, err := TreeHash(tree)
	if err != nil {
		return nil, err
	}
	res := &Result{TreeHash: hash, Artifacts: make(map[string][]byte)}

	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				r.Logger.Warn("cache read failed", "err", err)
			}
			if !hit {
				break
			}
			res.Artifacts[format] = data
		}
		if len(res.Artifacts) == len(opts.Formats) {
			res.CacheHit = true
			return res, nil
		}
	}

	c, err := Draw(tree, opts, nil)
	if err != nil {
		return nil, err
	}
	res.Stats.Entities = c.Model().Len(orgtree.Descendant) + c.Model().Len(orgtree.Ancestor)
	res.Stats.Visible = len(c.Hierarchy().Visible())

	res.Artifacts, err = RenderChart(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	for format, data := range res.Artifacts {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		}
	}
	return res, nil
}

// Animate replays script on tree and returns one SVG per frame, sampled at
// opts.FPS. The first frames show the initial paint.
func (r *Runner) Animate(ctx context.Context, tree *orgtree.Entity, opts Options, script []string) ([][]byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	actions, err := ParseActions(script)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}

	hash, err := TreeHash(tree)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.AnimationKey(hash, opts.AnimationKeyOpts(names))
	if !opts.Refresh {
		if data, hit, _ := r.Cache.Get(ctx, key); hit {
			var frames [][]byte
			if err := json.Unmarshal(data, &frames); err == nil {
				return frames, nil
			}
		}
	}

	clock := transition.NewManualClock(time.Unix(0, 0).UTC())
	c, err := mount(tree, opts, clock)
	if err != nil {
		return nil, err
	}
	an := &animator{c: c, clock: clock, step: frameStep(opts.FPS), svg: opts.SVGOptions()}
	if err := an.run(actions); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(an.frames); err == nil {
		_ = r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLAnimation)
	}
	r.Logger.Info("rendered animation", "actions", len(actions), "frames", len(an.frames))
	return an.frames, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
