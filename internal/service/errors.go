package service

import (
	"github.com/sirupsen/logrus"

	"taskboard-be/internal/apperr"
)

// classify passes classified store errors through and turns anything else into an
// internal error, logging the cause since the client will only see a generic message.
func classify(logger logrus.FieldLogger, op string, err error) error {
	if kind := apperr.KindOf(err); kind != apperr.KindInternal {
		return err
	}
	logger.WithError(err).WithField("op", op).Error("store operation failed")
	return apperr.Internal(err)
}
