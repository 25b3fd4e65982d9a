package signature

import (
	"github.com/smallbiznis/billora/internal/signature/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("signature",
	fx.Provide(repository.Provide),
)
