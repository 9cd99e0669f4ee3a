package app

import (
	"fmt"

	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
	userRepository "github.com/keepsakevault/keepsake/internal/user/repository"
	userService "github.com/keepsakevault/keepsake/internal/user/service"
	userUseCase "github.com/keepsakevault/keepsake/internal/user/usecase"
)

// UserRepository returns the user repository for the configured database
// driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// SessionStore returns the in-memory session store.
func (c *Container) SessionStore() userService.SessionStore {
	c.sessionStoreInit.Do(func() {
		c.sessionStore = userService.NewMemorySessionStore()
	})
	return c.sessionStore
}

// TokenService returns the session token service.
func (c *Container) TokenService() userService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = userService.NewTokenService()
	})
	return c.tokenService
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (userUseCase.UserUseCase, error) {
	c.userUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}

		uc, err := userUseCase.NewUserUseCase(txManager, userRepo, outboxRepo)
		if err != nil {
			c.initErrors["userUseCase"] = fmt.Errorf("failed to create user use case: %w", err)
			return
		}
		c.userUC = uc
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUC, nil
}

// SessionUseCase returns the session use case.
func (c *Container) SessionUseCase() (userUseCase.SessionUseCase, error) {
	c.sessionUCInit.Do(func() {
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
			return
		}
		audit, err := c.AuditUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
			return
		}

		uc, err := userUseCase.NewSessionUseCase(
			userRepo,
			c.SessionStore(),
			c.TokenService(),
			c.KeyDeriver(),
			audit,
			c.config.SessionTTL,
		)
		if err != nil {
			c.initErrors["sessionUseCase"] = fmt.Errorf("failed to create session use case: %w", err)
			return
		}
		c.sessionUC = uc
	})
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUC, nil
}

// UserHandler returns the user HTTP handler.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	c.userHandlerInit.Do(func() {
		uc, err := c.UserUseCase()
		if err != nil {
			c.initErrors["userHandler"] = err
			return
		}
		c.userHandler = userHTTP.NewUserHandler(uc, c.Logger())
	})
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// SessionHandler returns the session HTTP handler.
func (c *Container) SessionHandler() (*userHTTP.SessionHandler, error) {
	c.sessionHandlerInit.Do(func() {
		uc, err := c.SessionUseCase()
		if err != nil {
			c.initErrors["sessionHandler"] = err
			return
		}
		c.sessionHandler = userHTTP.NewSessionHandler(uc, c.Logger())
	})
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}
