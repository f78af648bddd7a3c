package service

import (
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

func requireIdentity(caller *model.Identity) error {
	if caller == nil || caller.ID == "" {
		return apperr.New(apperr.Unauthorized, "login required")
	}
	return nil
}

func requireAdmin(caller *model.Identity) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperr.New(apperr.Forbidden, "admin only")
	}
	return nil
}

func isNotFound(err error) bool {
	return db.IsNotFound(err)
}
