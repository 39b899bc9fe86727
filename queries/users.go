package queries

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"gitlab.com/unchained-card/card_api/model"
)

var (
	// ErrUserExists is returned when a record already exists for the wallet
	ErrUserExists = errors.New("User already registered for this wallet")
	// ErrUserNotFound godoc
	ErrUserNotFound = errors.New("User not found")
)

const uniqueViolation = "23505"

// GetUserByWallet returns the record of the wallet or nil if there is none
func (repo *Repo) GetUserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	users := []model.User{}
	db := repo.ConnReader.WithContext(ctx).
		Where("wallet_address = ?", model.NormalizeWallet(wallet)).
		Limit(1).
		Find(&users)
	if db.Error != nil {
		return nil, db.Error
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// CreateUser inserts the record of a newly registered wallet. The wallet is stored lower-cased.
func (repo *Repo) CreateUser(ctx context.Context, user *model.User) error {
	user.WalletAddress = model.NormalizeWallet(user.WalletAddress)
	db := repo.Conn.WithContext(ctx).Create(user)
	if db.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(db.Error, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return db.Error
	}
	return nil
}

// AttachCard stores the card issued for the wallet. Identity fields are never changed.
func (repo *Repo) AttachCard(ctx context.Context, wallet, cardCode, customerCode string) error {
	fields := map[string]interface{}{"card_code": cardCode}
	if customerCode != "" {
		fields["customer_code"] = customerCode
	}
	db := repo.Conn.WithContext(ctx).
		Model(&model.User{}).
		Where("wallet_address = ?", model.NormalizeWallet(wallet)).
		Updates(fields)
	if db.Error != nil {
		return db.Error
	}
	if db.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
