package app

import (
	"github.com/funwriting/ai-agents/internal/handlers"
	"github.com/funwriting/ai-agents/internal/logger"
)

type Handlers struct {
	Writing  *handlers.WritingHandler
	Media    *handlers.MediaHandler
	Validate *handlers.ValidateHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services) Handlers {
	includeDetails := !cfg.Production()
	return Handlers{
		Writing:  handlers.NewWritingHandler(log, serviceset.Writing, includeDetails),
		Media:    handlers.NewMediaHandler(log, serviceset.Media, includeDetails),
		Validate: handlers.NewValidateHandler(log, serviceset.ImageSafety, includeDetails),
	}
}
