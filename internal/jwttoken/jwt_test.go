package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
)

type JWTSuite struct {
	suite.Suite
	service *Service
}

func (s *JWTSuite) SetupTest() {
	s.service = NewService("test-signing-key", "greencheck")
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) TestRoundTrip() {
	token, err := s.service.GenerateAccessToken("ops@example.com", time.Hour)
	s.Require().NoError(err)

	claims, err := s.service.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal("ops@example.com", claims.UserID)
}

func (s *JWTSuite) TestExpiredToken() {
	token, err := s.service.GenerateAccessToken("ops@example.com", -time.Minute)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.ErrorContains(err, "expired")
}

func (s *JWTSuite) TestWrongSigningKey() {
	other := NewService("different-key", "greencheck")
	token, err := other.GenerateAccessToken("ops@example.com", time.Hour)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestGarbageToken() {
	_, err := s.service.ValidateToken("not.a.token")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}
