// Package mocks provides gomock implementations of the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockSignupBackend(ctrl)
//	backend.EXPECT().RequestSignup(gomock.Any(), "a@b.com", "p").Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/fitmatch-auth/internal/ports IdentityProvider,SignupBackend
