package document

import (
	"github.com/smallbiznis/billora/internal/document/repository"
	"github.com/smallbiznis/billora/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
