package generation

import (
	"context"
	"strings"

	"github.com/yungbote/edugenius-backend/internal/modules/ai/prompts"
	"github.com/yungbote/edugenius-backend/internal/modules/ai/provider"
)

const DefaultCodeLanguage = "python"

func (g *Generator) ExplainCode(ctx context.Context, code, language string) (string, error) {
	if strings.TrimSpace(language) == "" {
		language = DefaultCodeLanguage
	}
	p, err := g.prompts.Build(prompts.PromptExplainCode, prompts.Input{Code: code, Language: language})
	if err != nil {
		return "", err
	}
	return g.gens.For(provider.TaskCode).GenerateText(ctx, provider.UserPrompt(p.System, p.User))
}
