// Package mocks provides gomock-generated mocks for repository and auth port interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockItemRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), ownerID, itemID).Return(nil, core.ErrItemNotFound)
package mocks

// ItemRepository: Create, GetByID, List, Update, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=item_repository_mock.go github.com/target/itemvault/internal/core ItemRepository

// CredentialStore: CreateUser, GetUserByUsername, SetUserRole, Ping
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_store_mock.go github.com/target/itemvault/internal/ports CredentialStore

// TokenCodec: Encode, Decode
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_codec_mock.go github.com/target/itemvault/internal/ports TokenCodec
