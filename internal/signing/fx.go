package signing

import (
	"github.com/smallbiznis/billora/internal/signing/adapters"
	"github.com/smallbiznis/billora/internal/signing/repository"
	"github.com/smallbiznis/billora/internal/signing/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("signing",
	fx.Provide(adapters.NewRegistry),
	fx.Provide(repository.Provide),
	fx.Provide(webhook.New),
)
