package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"codewars-tracker/internal/api"
	"codewars-tracker/internal/config"
	"codewars-tracker/internal/database"
	"codewars-tracker/internal/logger"
	"codewars-tracker/internal/repository"
	"codewars-tracker/internal/server"
	"codewars-tracker/internal/service"
	"codewars-tracker/internal/telegram"
)

// The services depend on small interfaces; these adapters bind the concrete
// repository and API client types to them for the container.
func provideUserService(users *repository.UserRepository, codewars *api.CodewarsClient, log zerolog.Logger) *service.UserService {
	return service.NewUserService(users, codewars, log)
}

func provideGroupService(groups *repository.GroupRepository, users *repository.UserRepository, codewars *api.CodewarsClient, log zerolog.Logger) *service.GroupService {
	return service.NewGroupService(groups, users, codewars, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewUserRepository),
	fx.Provide(repository.NewGroupRepository),
	// api client
	fx.Provide(api.NewCodewarsClient),
	// svc
	fx.Provide(provideUserService),
	fx.Provide(provideGroupService),
	// transports
	fx.Provide(telegram.New),
	fx.Provide(server.New),
)
