package recurrence

import (
	"github.com/smallbiznis/billora/internal/recurrence/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("recurrence",
	fx.Provide(repository.Provide),
)
