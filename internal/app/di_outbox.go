package app

import (
	"fmt"

	outboxRepository "github.com/keepsakevault/keepsake/internal/outbox/repository"
	outboxUseCase "github.com/keepsakevault/keepsake/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository for the configured
// database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the outbox worker use case.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	c.outboxUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		c.outboxUC = outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:      c.config.WorkerInterval,
				BatchSize:     c.config.WorkerBatchSize,
				MaxRetries:    c.config.WorkerMaxRetries,
				RetryInterval: c.config.WorkerRetryInterval,
			},
			txManager,
			outboxRepo,
			outboxUseCase.NewDefaultEventProcessor(c.Logger()),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUC, nil
}
