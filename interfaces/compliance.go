package interfaces

import (
	"pickem-go/database"
	"pickem-go/publisher"
	"pickem-go/services"
)

// Interface compliance checks - these will fail to compile if services don't implement interfaces
var (
	_ GameViewServiceInterface = (*services.GameViewService)(nil)
	_ PickServiceInterface     = (*services.PickService)(nil)
	_ AuthServiceInterface     = (*services.AuthService)(nil)
	_ UpdaterInterface         = (*services.BackgroundUpdater)(nil)
	_ HealthChecker            = (*services.SportsAPIService)(nil)

	_ services.GameUpdater          = (*services.Reconciler)(nil)
	_ services.ScoreSource          = (*services.SportsAPIService)(nil)
	_ services.GamesUpdatedNotifier = (*publisher.StreamPublisher)(nil)

	_ services.GameRepository   = (*database.MongoGameRepository)(nil)
	_ services.TeamRepository   = (*database.MongoTeamRepository)(nil)
	_ services.PickRepository   = (*database.MongoPickRepository)(nil)
	_ services.UserRepository   = (*database.MongoUserRepository)(nil)
	_ services.SeasonRepository = (*database.MongoSeasonRepository)(nil)

	_ services.GameRepository   = (*database.MemoryStore)(nil)
	_ services.TeamRepository   = (*database.MemoryStore)(nil)
	_ services.PickRepository   = (*database.MemoryStore)(nil)
	_ services.UserRepository   = (*database.MemoryStore)(nil)
	_ services.SeasonRepository = (*database.MemoryStore)(nil)
)
