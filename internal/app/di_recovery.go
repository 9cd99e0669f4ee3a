package app

import (
	"fmt"

	recoveryHTTP "github.com/keepsakevault/keepsake/internal/recovery/http"
	recoveryRepository "github.com/keepsakevault/keepsake/internal/recovery/repository"
	recoveryService "github.com/keepsakevault/keepsake/internal/recovery/service"
	recoveryUseCase "github.com/keepsakevault/keepsake/internal/recovery/usecase"
)

// PlanRepository returns the recovery plan repository for the configured
// database driver.
func (c *Container) PlanRepository() (recoveryUseCase.RecoveryPlanRepository, error) {
	c.planRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["planRepo"] = fmt.Errorf("failed to get database for plan repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.planRepo = recoveryRepository.NewPostgreSQLPlanRepository(db)
		case "mysql":
			c.planRepo = recoveryRepository.NewMySQLPlanRepository(db)
		default:
			c.initErrors["planRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["planRepo"]; exists {
		return nil, storedErr
	}
	return c.planRepo, nil
}

// TrusteeRepository returns the trustee repository for the configured
// database driver.
func (c *Container) TrusteeRepository() (recoveryUseCase.TrusteeRepository, error) {
	c.trusteeRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["trusteeRepo"] = fmt.Errorf("failed to get database for trustee repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.trusteeRepo = recoveryRepository.NewPostgreSQLTrusteeRepository(db)
		case "mysql":
			c.trusteeRepo = recoveryRepository.NewMySQLTrusteeRepository(db)
		default:
			c.initErrors["trusteeRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["trusteeRepo"]; exists {
		return nil, storedErr
	}
	return c.trusteeRepo, nil
}

// BeneficiaryRepository returns the beneficiary repository for the configured
// database driver.
func (c *Container) BeneficiaryRepository() (recoveryUseCase.BeneficiaryRepository, error) {
	c.beneficiaryRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["beneficiaryRepo"] = fmt.Errorf("failed to get database for beneficiary repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.beneficiaryRepo = recoveryRepository.NewPostgreSQLBeneficiaryRepository(db)
		case "mysql":
			c.beneficiaryRepo = recoveryRepository.NewMySQLBeneficiaryRepository(db)
		default:
			c.initErrors["beneficiaryRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["beneficiaryRepo"]; exists {
		return nil, storedErr
	}
	return c.beneficiaryRepo, nil
}

// CoveredItemRepository returns the covered item repository for the
// configured database driver.
func (c *Container) CoveredItemRepository() (recoveryUseCase.CoveredItemRepository, error) {
	c.coveredItemRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["coveredItemRepo"] = fmt.Errorf("failed to get database for covered item repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.coveredItemRepo = recoveryRepository.NewPostgreSQLCoveredItemRepository(db)
		case "mysql":
			c.coveredItemRepo = recoveryRepository.NewMySQLCoveredItemRepository(db)
		default:
			c.initErrors["coveredItemRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["coveredItemRepo"]; exists {
		return nil, storedErr
	}
	return c.coveredItemRepo, nil
}

// SecretSharer returns the Shamir secret sharing service.
func (c *Container) SecretSharer() recoveryService.SecretSharer {
	c.secretSharerInit.Do(func() {
		c.secretSharer = recoveryService.NewSecretSharer()
	})
	return c.secretSharer
}

// ShareSealer returns the trustee share sealer.
func (c *Container) ShareSealer() recoveryService.ShareSealer {
	c.shareSealerInit.Do(func() {
		c.shareSealer = recoveryService.NewShareSealer(c.AEADManager())
	})
	return c.shareSealer
}

// RecoveryPlanUseCase returns the recovery plan engine wrapped with business
// metrics. The vault item use case serves as its recoverability verifier so
// completing a recovery proves the reconstructed key can decrypt covered
// items.
func (c *Container) RecoveryPlanUseCase() (recoveryUseCase.RecoveryPlanUseCase, error) {
	c.recoveryUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		planRepo, err := c.PlanRepository()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		trusteeRepo, err := c.TrusteeRepository()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		beneficiaryRepo, err := c.BeneficiaryRepository()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		coveredItemRepo, err := c.CoveredItemRepository()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		audit, err := c.AuditUseCase()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		verifier, err := c.VaultItemUseCase()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["recoveryUseCase"] = err
			return
		}

		uc := recoveryUseCase.NewPlanEngine(
			txManager,
			planRepo,
			trusteeRepo,
			beneficiaryRepo,
			coveredItemRepo,
			outboxRepo,
			c.SecretSharer(),
			c.ShareSealer(),
			audit,
			verifier,
		)
		c.recoveryUC = recoveryUseCase.NewRecoveryPlanUseCaseWithMetrics(uc, bm)
	})
	if storedErr, exists := c.initErrors["recoveryUseCase"]; exists {
		return nil, storedErr
	}
	return c.recoveryUC, nil
}

// PlanHandler returns the recovery plan HTTP handler.
func (c *Container) PlanHandler() (*recoveryHTTP.PlanHandler, error) {
	c.planHandlerInit.Do(func() {
		uc, err := c.RecoveryPlanUseCase()
		if err != nil {
			c.initErrors["planHandler"] = err
			return
		}
		c.planHandler = recoveryHTTP.NewPlanHandler(uc, c.Logger())
	})
	if storedErr, exists := c.initErrors["planHandler"]; exists {
		return nil, storedErr
	}
	return c.planHandler, nil
}
