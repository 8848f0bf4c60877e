package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"taskboard-be/internal/jwt"
	"taskboard-be/internal/password"
	"taskboard-be/internal/repository/repotest"
)

func strPtr(s string) *string { return &s }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type authFixture struct {
	svc    AuthService
	users  *repotest.UserStore
	tokens *jwt.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := repotest.NewUserStore()
	tokens := jwt.NewJWTService("test-secret")
	svc := NewAuthService(
		users,
		tokens,
		password.NewHasher(4),
		TokenTTLs{Signup: time.Hour, Login: 672 * time.Hour},
		quietLogger(),
		nil,
	)
	return &authFixture{svc: svc, users: users, tokens: tokens}
}
