package app

import (
	"fmt"

	auditHTTP "github.com/keepsakevault/keepsake/internal/audit/http"
	auditRepository "github.com/keepsakevault/keepsake/internal/audit/repository"
	auditService "github.com/keepsakevault/keepsake/internal/audit/service"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
)

// AuditRepository returns the audit record repository for the configured
// database driver.
func (c *Container) AuditRepository() (auditUseCase.AuditRecordRepository, error) {
	c.auditRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["auditRepo"] = fmt.Errorf("failed to get database for audit repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.auditRepo = auditRepository.NewPostgreSQLAuditRecordRepository(db)
		case "mysql":
			c.auditRepo = auditRepository.NewMySQLAuditRecordRepository(db)
		default:
			c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditUseCase returns the audit use case wrapped with business metrics.
func (c *Container) AuditUseCase() (auditUseCase.AuditUseCase, error) {
	c.auditUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}
		repo, err := c.AuditRepository()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}
		signer, err := c.RecordSigner()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}

		uc := auditUseCase.NewAuditUseCase(txManager, repo, auditService.NewChainHasher(), signer)
		c.auditUC = auditUseCase.NewAuditUseCaseWithMetrics(uc, bm)
	})
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUC, nil
}

// AuditHandler returns the audit record HTTP handler.
func (c *Container) AuditHandler() (*auditHTTP.AuditRecordHandler, error) {
	c.auditHandlerInit.Do(func() {
		uc, err := c.AuditUseCase()
		if err != nil {
			c.initErrors["auditHandler"] = err
			return
		}
		c.auditHandler = auditHTTP.NewAuditRecordHandler(uc, c.Logger())
	})
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}
