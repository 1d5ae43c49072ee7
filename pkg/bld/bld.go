// Package bld runs a complete build: resolve the entry, build the module
// graph, generate the bundle and write it.
package bld

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coldog/minipack/pkg/compiler"
	"github.com/coldog/minipack/pkg/config"
	"github.com/coldog/minipack/pkg/graph"
	"github.com/coldog/minipack/pkg/linker"
	"github.com/coldog/minipack/pkg/logging"
	"github.com/coldog/minipack/pkg/resolve"
)

// Compiler bundles the entry named by its configuration.
type Compiler struct {
	cfg      *config.Config
	resolver *resolve.Resolver
	builder  *graph.Builder
}

// New validates cfg and prepares a Compiler for it.
func New(cfg *config.Config) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	target, err := compiler.ParseTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	r, err := resolve.New(cfg.Root(), cfg.Resolve.Extensions)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	return &Compiler{
		cfg:      cfg,
		resolver: r,
		builder: &graph.Builder{
			Resolver:    r,
			Analyzer:    &compiler.Analyzer{},
			Emitter:     &compiler.Emitter{Target: target, Minify: cfg.Minify},
			Concurrency: cfg.Concurrency,
		},
	}, nil
}

// Bundle builds the graph and generates the bundle without writing it.
func (c *Compiler) Bundle(ctx context.Context) (*graph.Graph, []byte, error) {
	entry, err := c.resolver.Entry(c.cfg.Entry)
	if err != nil {
		return nil, nil, err
	}
	g, err := c.builder.Build(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	bundle, err := linker.Generate(g)
	if err != nil {
		return nil, nil, err
	}
	return g, bundle, nil
}

// Run builds and writes the bundle, returning the written file. Nothing is
// written unless every module built.
func (c *Compiler) Run(ctx context.Context) (string, error) {
	start := time.Now()

	g, bundle, err := c.Bundle(ctx)
	if err != nil {
		return "", err
	}
	file, err := linker.Write(linker.Output{Path: c.cfg.Output.Path, Filename: c.cfg.Output.Filename}, bundle)
	if err != nil {
		return "", err
	}

	logging.Logger().Info("build finished",
		zap.String("entry", g.Entry),
		zap.Int("modules", len(g.Modules)),
		zap.String("output", file),
		zap.Duration("took", time.Since(start)))
	return file, nil
}
