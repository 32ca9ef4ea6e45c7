package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"posterr/internal/app"
	"posterr/internal/infra/config"
)

func run(t *testing.T, ctx context.Context, open opener, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(ctx, open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sharedApp(t *testing.T) opener {
	t.Helper()
	t.Setenv("PG_DSN", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SEED", "false")
	cfg, err := config.Parse()
	require.NoError(t, err)
	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return func(context.Context) (*app.App, error) { return a, nil }
}

func TestCLIFlow(t *testing.T) {
	ctx := context.Background()
	open := sharedApp(t)

	out, err := run(t, ctx, open, "seed")
	require.NoError(t, err)
	require.Contains(t, out, "загружены")

	out, err = run(t, ctx, open, "post", "hello from cli")
	require.NoError(t, err)
	require.Contains(t, out, `"content": "hello from cli"`)

	out, err = run(t, ctx, open, "quota")
	require.NoError(t, err)
	require.Contains(t, out, "1/5, осталось 4")

	_, err = run(t, ctx, open, "repost", "missing-id")
	require.EqualError(t, err, "Original post not found")

	out, err = run(t, ctx, open, "quote", "post1", "nice")
	require.NoError(t, err)
	require.Contains(t, out, `"type": "QUOTE"`)

	out, err = run(t, ctx, open, "feed", "--user", "user1")
	require.NoError(t, err)
	require.Equal(t, 4, strings.Count(out, `"author_username": "jardimtech"`))

	_, err = run(t, ctx, open, "login", "user2")
	require.NoError(t, err)
	out, err = run(t, ctx, open, "profile")
	require.NoError(t, err)
	require.Contains(t, out, `"username": "androiddev"`)

	out, err = run(t, ctx, open, "reconcile")
	require.NoError(t, err)
	require.Contains(t, out, "исправлено: 0")

	_, err = run(t, ctx, open, "reset")
	require.NoError(t, err)
	_, err = run(t, ctx, open, "post", "x")
	require.EqualError(t, err, "User is not logged in")
}

func TestCLIRequiresLogin(t *testing.T) {
	_, err := run(t, context.Background(), sharedApp(t), "post", "hello")
	require.EqualError(t, err, "User is not logged in")
}
