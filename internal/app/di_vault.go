package app

import (
	"fmt"

	vaultHTTP "github.com/keepsakevault/keepsake/internal/vault/http"
	vaultRepository "github.com/keepsakevault/keepsake/internal/vault/repository"
	vaultUseCase "github.com/keepsakevault/keepsake/internal/vault/usecase"
)

// ItemRepository returns the vault item repository for the configured
// database driver.
func (c *Container) ItemRepository() (vaultUseCase.VaultItemRepository, error) {
	c.itemRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["itemRepo"] = fmt.Errorf("failed to get database for item repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.itemRepo = vaultRepository.NewPostgreSQLItemRepository(db)
		case "mysql":
			c.itemRepo = vaultRepository.NewMySQLItemRepository(db)
		default:
			c.initErrors["itemRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["itemRepo"]; exists {
		return nil, storedErr
	}
	return c.itemRepo, nil
}

// ItemVersionRepository returns the item version repository for the
// configured database driver.
func (c *Container) ItemVersionRepository() (vaultUseCase.ItemVersionRepository, error) {
	c.versionRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["versionRepo"] = fmt.Errorf("failed to get database for version repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "postgres":
			c.versionRepo = vaultRepository.NewPostgreSQLItemVersionRepository(db)
		case "mysql":
			c.versionRepo = vaultRepository.NewMySQLItemVersionRepository(db)
		default:
			c.initErrors["versionRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["versionRepo"]; exists {
		return nil, storedErr
	}
	return c.versionRepo, nil
}

// VaultItemUseCase returns the vault item use case wrapped with business
// metrics.
func (c *Container) VaultItemUseCase() (vaultUseCase.VaultItemUseCase, error) {
	c.vaultUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}
		itemRepo, err := c.ItemRepository()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}
		versionRepo, err := c.ItemVersionRepository()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}
		audit, err := c.AuditUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
			return
		}

		uc := vaultUseCase.NewVaultItemUseCase(txManager, itemRepo, versionRepo, c.ContentKeyManager(), audit)
		c.vaultUC = vaultUseCase.NewVaultItemUseCaseWithMetrics(uc, bm)
	})
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUC, nil
}

// ItemHandler returns the vault item HTTP handler.
func (c *Container) ItemHandler() (*vaultHTTP.ItemHandler, error) {
	c.itemHandlerInit.Do(func() {
		uc, err := c.VaultItemUseCase()
		if err != nil {
			c.initErrors["itemHandler"] = err
			return
		}
		c.itemHandler = vaultHTTP.NewItemHandler(uc, c.Logger())
	})
	if storedErr, exists := c.initErrors["itemHandler"]; exists {
		return nil, storedErr
	}
	return c.itemHandler, nil
}
