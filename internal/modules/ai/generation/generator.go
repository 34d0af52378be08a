// Package generation produces quizzes, courses and code explanations with the
// configured generative providers.
package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/ingestion"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/store"
	"github.com/yungbote/edugenius-backend/internal/observability"
	"github.com/yungbote/edugenius-backend/internal/platform/logger"
)

// CourseIngester indexes a freshly created course.
type CourseIngester interface {
	IngestCourse(ctx context.Context, courseID uuid.UUID) (*ingestion.IngestReport, error)
}

type Config struct {
	// IngestGenerated indexes generated courses after they commit.
	IngestGenerated bool
}

type Generator struct {
	gens    *provider.Registry
	store   store.Gateway
	prompts *prompts.Registry
	ingest  CourseIngester
	cfg     Config
	log     *logger.Logger

	// background ingestion of generated courses
	bgMu     sync.Mutex
	bg       sync.WaitGroup
	bgCtx    context.Context
	bgCancel context.CancelFunc
	closed   bool
}

func New(gens *provider.Registry, gw store.Gateway, reg *prompts.Registry, ingest CourseIngester, cfg Config, baseLog *logger.Logger) *Generator {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Generator{
		gens:     gens,
		store:    gw,
		prompts:  reg,
		ingest:   ingest,
		cfg:      cfg,
		log:      baseLog.With("service", "StructuredGenerator"),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
}

// Close stops accepting background work and waits for running ingestions.
// When ctx ends first they are canceled and ctx's error is returned.
func (g *Generator) Close(ctx context.Context) error {
	g.bgMu.Lock()
	g.closed = true
	g.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		g.bg.Wait()
		close(done)
	}()
	select {
	case <-done:
		g.bgCancel()
		return nil
	case <-ctx.Done():
		g.bgCancel()
		<-done
		return ctx.Err()
	}
}

func (g *Generator) structured(ctx context.Context, task provider.Task, name prompts.PromptName, in prompts.Input, out any) error {
	p, err := g.prompts.Build(name, in)
	if err != nil {
		return err
	}
	res := provider.GenerateStructured(ctx, g.gens.For(task), p.User, p.System, provider.Schema{Name: p.SchemaName, Doc: p.Schema})
	if res.Err != nil {
		var pf *provider.ParseFailure
		if errors.As(res.Err, &pf) && len(pf.Violations) > 0 {
			observability.ReportSchemaViolations(ctx, g.log, p.Name, pf.Violations)
		} else {
			g.log.Warn("structured generation failed", "prompt", p.Name, "version", p.Version, "error", res.Err)
		}
	}
	return res.Decode(out)
}
