// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenBootstrapsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFileName)

	cache, err := OpenPath(path)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	chats, err := cache.LoadChats(ctx)
	require.NoError(t, err)
	require.Empty(t, chats)

	msgs, err := cache.LoadMessages(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, msgs)

	// A second open against the same file must not fail on the existing
	// schema.
	again, err := OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestDeleteChat_MissingIsNoop(t *testing.T) {
	cache, err := OpenPath(filepath.Join(t.TempDir(), CacheFileName))
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.DeleteChat(context.Background(), 12345))
}
