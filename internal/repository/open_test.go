package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autods/internal/config"
	"autods/internal/gateway/supabase"
)

func TestOpen(t *testing.T) {
	client, err := supabase.New(supabase.Config{ProjectURL: "https://project.supabase.co", AnonKey: "anon"})
	require.NoError(t, err)
	ctx := context.Background()

	repo, closeFn, err := Open(ctx, &config.Config{ProfileDriver: "supabase"}, client)
	require.NoError(t, err)
	assert.NotNil(t, repo)
	closeFn()

	_, _, err = Open(ctx, &config.Config{ProfileDriver: "supabase"}, nil)
	assert.Error(t, err)

	_, _, err = Open(ctx, &config.Config{ProfileDriver: "mysql"}, nil)
	assert.ErrorContains(t, err, "MYSQL_DSN is empty")

	_, _, err = Open(ctx, &config.Config{ProfileDriver: "postgres"}, nil)
	assert.ErrorContains(t, err, "POSTGRES_DSN is empty")

	_, _, err = Open(ctx, &config.Config{ProfileDriver: "mongo"}, nil)
	assert.ErrorContains(t, err, `unknown profile driver "mongo"`)
}
