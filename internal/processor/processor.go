package processor

import (
	"fmt"
	"log/slog"

	"imgproc.szuro.net/internal/cache"
	"imgproc.szuro.net/internal/imageio"
	"imgproc.szuro.net/internal/logger"
	"imgproc.szuro.net/internal/plugin"
	"imgproc.szuro.net/pkg/pixel"
)

// Request describes one run of the pipeline.
type Request struct {
	Input  string
	Output string
	Filter string
	Params string
}

// Processor decodes an image, runs one filter over it and encodes the
// result. Any failure aborts the run before the output is written.
type Processor struct {
	registry *plugin.Registry
	cache    *cache.ResultCache
}

// New builds a processor. rc may be nil to disable result caching.
func New(registry *plugin.Registry, rc *cache.ResultCache) *Processor {
	return &Processor{registry: registry, cache: rc}
}

func (p *Processor) Process(req Request) error {
	if _, err := imageio.FormatFromPath(req.Output); err != nil {
		return err
	}

	buf, err := imageio.ReadFile(req.Input)
	if err != nil {
		return fmt.Errorf("cannot read input image: %w", err)
	}
	logger.Debug("Decoded input image",
		slog.String("path", req.Input),
		slog.Int("width", int(buf.Width())),
		slog.Int("height", int(buf.Height())))

	if err := p.Run(buf, req.Filter, req.Params); err != nil {
		return err
	}

	if err := imageio.WriteFile(req.Output, buf); err != nil {
		return fmt.Errorf("cannot write output image: %w", err)
	}
	logger.Info("Wrote output image", slog.String("path", req.Output), slog.String("filter", req.Filter))
	return nil
}

// Run applies filter to buf in place. The filter is resolved and the
// parameters normalised before the result cache is consulted, so a cached
// result never stands in for a missing plugin or refused parameters.
func (p *Processor) Run(buf *pixel.Buffer, filter, params string) error {
	h, err := p.registry.Resolve(filter)
	if err != nil {
		return err
	}
	params, err = p.registry.NormalizeParams(params)
	if err != nil {
		return err
	}

	var key []byte
	if p.cache != nil {
		key = cache.Key(h.Fingerprint, params, buf)
		hit, err := p.cache.Get(key, buf)
		if err != nil {
			logger.Warn("Result cache lookup failed", slog.Any("error", err))
		}
		if hit {
			logger.Info("Using cached result", slog.String("filter", filter))
			return nil
		}
	}

	if err := p.registry.Invoke(h, buf, params); err != nil {
		return err
	}

	if p.cache != nil {
		if err := p.cache.Put(key, buf); err != nil {
			logger.Warn("Result cache store failed", slog.Any("error", err))
		}
	}
	return nil
}
