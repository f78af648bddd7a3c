package bootstrap

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed_products.yaml
var seedProductsYAML []byte

type SeedProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Category    string `yaml:"category"`
}

type SeedConfig struct {
	Products []SeedProduct `yaml:"products"`
}

func LoadSeedConfig(raw []byte) (*SeedConfig, error) {
	cf := &SeedConfig{}
	if err := yaml.Unmarshal(raw, cf); err != nil {
		return nil, err
	}
	return cf, nil
}

type Seeder struct {
	store         db.IStore
	logger        *zerolog.Logger
	adminUsername string
	adminPassword string
	bcryptCost    int
	products      []byte
}

func NewSeeder(store db.IStore, logger *zerolog.Logger, adminUsername, adminPassword string) *Seeder {
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Seeder{
		store:         store,
		logger:        logger,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		bcryptCost:    bcrypt.DefaultCost,
		products:      seedProductsYAML,
	}
}

func (s *Seeder) WithBcryptCost(cost int) *Seeder {
	s.bcryptCost = cost
	return s
}

// Seed admin 不存在時建立 admin，商品表為空時寫入範例商品
// 冪等性
func (s *Seeder) Seed(ctx context.Context) error {
	seedCf, err := LoadSeedConfig(s.products)
	if err != nil {
		return fmt.Errorf("load seed products: %w", err)
	}

	var hash string
	if s.adminUsername != "" && s.adminPassword != "" {
		hash, err = service.HashPassword(s.adminPassword, s.bcryptCost)
		if err != nil {
			return err
		}
	}

	return s.store.ExecTx(ctx, func(q db.Querier) error {
		adminID, err := s.seedAdmin(ctx, q, hash)
		if err != nil {
			return err
		}
		return s.seedProducts(ctx, q, adminID, seedCf.Products)
	})
}

func (s *Seeder) seedAdmin(ctx context.Context, q db.Querier, hash string) (string, error) {
	if hash == "" {
		s.logger.Warn().Msg("seed admin skipped: username or password not configured")
		return "", nil
	}

	existing, err := q.GetUserByUsername(ctx, s.adminUsername)
	if err == nil {
		if existing.Role != constants.RoleAdmin {
			s.logger.Warn().Str("username", s.adminUsername).Msg("seed admin username is taken by a non-admin user")
		}
		return existing.ID, nil
	}
	if !db.IsNotFound(err) {
		return "", err
	}

	count, err := q.CountUsersByRole(ctx, constants.RoleAdmin)
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}

	admin := &model.User{
		ID:           uuid.NewString(),
		Username:     s.adminUsername,
		PasswordHash: hash,
		Role:         constants.RoleAdmin,
	}
	if err := q.CreateUser(ctx, admin); err != nil {
		return "", err
	}
	s.logger.Info().Str("username", admin.Username).Msg("seeded admin user")
	return admin.ID, nil
}

func (s *Seeder) seedProducts(ctx context.Context, q db.Querier, createdBy string, products []SeedProduct) error {
	count, err := q.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, sp := range products {
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", sp.Name, err)
		}
		p := &model.Product{
			ID:          uuid.NewString(),
			Name:        sp.Name,
			Description: sp.Description,
			Price:       price,
			CreatedBy:   createdBy,
			Images:      model.StringList{},
			IsActive:    1,
		}
		if sp.Image != "" {
			image := sp.Image
			p.Image = &image
			p.Images = model.StringList{sp.Image}
		}
		if sp.Category != "" {
			category := sp.Category
			p.Category = &category
		}
		if err := q.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	s.logger.Info().Int("count", len(products)).Msg("seeded sample products")
	return nil
}
