// Package mocks provides mock implementations for testing taskdesk.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	tasks := mocks.NewMockTaskAPI(ctrl)
//	tasks.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)
package mocks

// Generate mock for TaskAPI interface from internal/ports package.
// This creates MockTaskAPI with methods for all TaskAPI interface methods:
// List, Create, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=task_api_mock.go github.com/target/taskdesk/internal/ports TaskAPI

// Generate mock for UserAPI interface from internal/ports package.
// This creates MockUserAPI with methods for all UserAPI interface methods:
// List, Get, Create, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_api_mock.go github.com/target/taskdesk/internal/ports UserAPI

// Generate mock for CredentialStore interface from internal/ports package.
// This creates MockCredentialStore with methods for all CredentialStore interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/target/taskdesk/internal/ports CredentialStore
