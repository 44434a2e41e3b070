package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/platebite/platebite-backend/pkg/db"
	"github.com/platebite/platebite-backend/pkg/db/models"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// AccountsRepository stores the Stripe linkage for vendors and customers.
type AccountsRepository interface {
	WithTx(tx *gorm.DB) AccountsRepository
	FindVendorAccount(ctx context.Context, vendorID uuid.UUID) (*models.VendorAccount, error)
	FindVendorAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.VendorAccount, error)
	UpsertVendorAccount(ctx context.Context, account *models.VendorAccount) error
	FindCustomerProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error)
	CreateCustomerProfile(ctx context.Context, profile *models.CustomerProfile) error
}

type accountsRepository struct {
	db *gorm.DB
}

// NewAccountsRepository wires the accounts repository to a GORM handle.
func NewAccountsRepository(db *gorm.DB) AccountsRepository {
	return &accountsRepository{db: db}
}

func (r *accountsRepository) WithTx(tx *gorm.DB) AccountsRepository {
	if tx == nil {
		return r
	}
	return &accountsRepository{db: tx}
}

func (r *accountsRepository) FindVendorAccount(ctx context.Context, vendorID uuid.UUID) (*models.VendorAccount, error) {
	var account models.VendorAccount
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vendor account")
	}
	return &account, nil
}

func (r *accountsRepository) FindVendorAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.VendorAccount, error) {
	var account models.VendorAccount
	err := r.db.WithContext(ctx).
		Where("stripe_account_id = ?", stripeAccountID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find vendor account by stripe id")
	}
	return &account, nil
}

func (r *accountsRepository) UpsertVendorAccount(ctx context.Context, account *models.VendorAccount) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stripe_account_id", "charges_enabled", "payouts_enabled", "updated_at"}),
		}).
		Create(account).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert vendor account")
	}
	return nil
}

func (r *accountsRepository) FindCustomerProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find customer profile")
	}
	return &profile, nil
}

func (r *accountsRepository) CreateCustomerProfile(ctx context.Context, profile *models.CustomerProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "customer profile already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer profile")
	}
	return nil
}
