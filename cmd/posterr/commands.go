package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"posterr/internal/app"
	"posterr/internal/domain"
)

type opener func(ctx context.Context) (*app.App, error)

// Без PG_DSN каждая команда работает с новым хранилищем в памяти.
func newRootCmd(ctx context.Context, open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "posterr",
		Short:         "Posterr: публикация постов и дневная квота",
		SilenceUsage:  true,
	}
	root.AddCommand(
		seedCmd(ctx, open),
		resetCmd(ctx, open),
		loginCmd(ctx, open),
		postCmd(ctx, open),
		repostCmd(ctx, open),
		quoteCmd(ctx, open),
		feedCmd(ctx, open),
		profileCmd(ctx, open),
		quotaCmd(ctx, open),
		reconcileCmd(ctx, open),
	)
	return root
}

func withApp(ctx context.Context, open opener, fn func(a *app.App, sess domain.Session) error) error {
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	sess, err := a.Session(ctx)
	if err != nil {
		return fmt.Errorf("сессия: %w", err)
	}
	return fn(a, sess)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seedCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "seed", Short: "Заполнить пустое хранилище демо-данными", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, _ domain.Session) error {
				seeded, err := a.Seed(ctx)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "хранилище не пустое, пропускаем")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "демо-данные загружены")
				return nil
			})
		}}
}

func resetCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "reset", Short: "Удалить все данные, включая дневные счётчики", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, _ domain.Session) error {
				return a.Reset(ctx)
			})
		}}
}

func loginCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "login <user-id>", Short: "Сделать пользователя вошедшим", Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, _ domain.Session) error {
				if err := a.Users.SetLoggedIn(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "вошёл %s\n", args[0])
				return nil
			})
		}}
}

func postCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "post <content>", Short: "Опубликовать пост", Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, sess domain.Session) error {
				created, err := a.PostsUC.CreateOriginal(ctx, sess, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		}}
}

func repostCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "repost <post-id>", Short: "Сделать репост", Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, sess domain.Session) error {
				created, err := a.PostsUC.CreateRepost(ctx, sess, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		}}
}

func quoteCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "quote <post-id> <content>", Short: "Процитировать пост", Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, sess domain.Session) error {
				created, err := a.PostsUC.CreateQuote(ctx, sess, args[1], args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		}}
}

func feedCmd(ctx context.Context, open opener) *cobra.Command {
	var userID string
	cmd := &cobra.Command{Use: "feed", Short: "Показать ленту", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, _ domain.Session) error {
				var (
					items []domain.PostWithAuthor
					err   error
				)
				if userID != "" {
					items, err = a.FeedUC.PostsByUser(ctx, userID)
				} else {
					items, err = a.FeedUC.AllPosts(ctx)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		}}
	cmd.Flags().StringVar(&userID, "user", "", "только посты пользователя")
	return cmd
}

func profileCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "profile [user-id]", Short: "Показать профиль; без аргумента профиль вошедшего", Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, sess domain.Session) error {
				var (
					profile domain.ProfileData
					err     error
				)
				if len(args) == 1 {
					profile, err = a.FeedUC.Profile(ctx, args[0])
				} else {
					profile, err = a.FeedUC.LoggedInProfile(ctx, sess)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), profile)
			})
		}}
}

func quotaCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "quota", Short: "Показать остаток дневной квоты", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, sess domain.Session) error {
				if !sess.LoggedIn() {
					return domain.ErrNotLoggedIn
				}
				used, err := a.Validator.PostsCountToday(ctx, sess)
				if err != nil {
					return err
				}
				remaining, err := a.Validator.RemainingToday(ctx, sess)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d, осталось %d\n", a.Validator.Today(), used, domain.DailyPostLimit, remaining)
				return nil
			})
		}}
}

func reconcileCmd(ctx context.Context, open opener) *cobra.Command {
	return &cobra.Command{Use: "reconcile", Short: "Пересчитать статистику пользователей по постам", Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(ctx, open, func(a *app.App, _ domain.Session) error {
				fixed, err := a.StatsUC.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "исправлено: %d\n", fixed)
				return nil
			})
		}}
}
