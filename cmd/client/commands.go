package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/packwise/go-pack-sync/internal/client"
	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/models"
)

// cliFlags holds the persistent overrides merged on top of env and JSON
// configuration.
type cliFlags struct {
	serverURL string
	dbPath    string
	token     string
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	var app *client.App

	root := &cobra.Command{
		Use:          "pack-sync-client",
		Short:        "Offline-first client for shared packing lists",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.GetClientConfig()
			if err != nil {
				return fmt.Errorf("error getting configs: %w", err)
			}
			if flags.serverURL != "" {
				cfg.Adapter.BaseURL = flags.serverURL
			}
			if flags.dbPath != "" {
				cfg.Storage.Path = flags.dbPath
			}
			cfg.ApplyDefaults()
			if err = cfg.Validate(); err != nil {
				return err
			}

			app, err = client.NewApp(cfg, logger.NewClientLogger("pack-sync-client"))
			if err != nil {
				return err
			}

			if flags.token == "" {
				flags.token = os.Getenv("PACK_SYNC_TOKEN")
			}
			if flags.token != "" {
				app.SetToken(flags.token)
			}

			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}

	root.PersistentFlags().StringVarP(&flags.serverURL, "server", "s", "", "server base URL")
	root.PersistentFlags().StringVarP(&flags.dbPath, "db", "d", "", "path to the local SQLite file")
	root.PersistentFlags().StringVarP(&flags.token, "token", "t", "", "session token (env PACK_SYNC_TOKEN)")

	root.AddCommand(
		newRegisterCommand(&app),
		newLoginCommand(&app),
		newCreateCommand(&app),
		newShareCommand(&app),
		newPullCommand(&app),
		newShowCommand(&app),
		newAddCommand(&app),
		newUpdateCommand(&app),
		newRemoveCommand(&app),
		newReorderCommand(&app),
		newSyncCommand(&app),
		newConflictsCommand(&app),
		newResolveCommand(&app),
		newRunCommand(&app),
	)

	return root
}

func newRegisterCommand(app **client.App) *cobra.Command {
	var login, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := (*app).Register(cmd.Context(), login, password, name)
			if err != nil {
				return err
			}
			fmt.Println(token.SignedString)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "login", "l", "", "account login")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCommand(app **client.App) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := (*app).Login(cmd.Context(), login, password)
			if err != nil {
				return err
			}
			fmt.Println(token.SignedString)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "login", "l", "", "account login")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newCreateCommand(app **client.App) *cobra.Command {
	var listID string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new packing list on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := (*app).CreateList(cmd.Context(), listID, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created list %s (version %d)\n", snapshot.EntityID, snapshot.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&listID, "id", "", "list id (generated when empty)")

	return cmd
}

func newShareCommand(app **client.App) *cobra.Command {
	var login string

	cmd := &cobra.Command{
		Use:   "share <list-id>",
		Short: "Grant another user edit access to an owned list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*app).ShareList(cmd.Context(), args[0], login); err != nil {
				return err
			}
			fmt.Printf("list %s shared with %s\n", args[0], login)
			return nil
		},
	}
	cmd.Flags().StringVarP(&login, "login", "l", "", "login of the new editor")
	_ = cmd.MarkFlagRequired("login")

	return cmd
}

func newPullCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <list-id>",
		Short: "Fetch the server's canonical snapshot into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := (*app).Pull(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSnapshot(snapshot)
			return nil
		},
	}
}

func newShowCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Render the optimistic local state of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := (*app).Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSnapshot(snapshot)
			return nil
		},
	}
}

func newAddCommand(app **client.App) *cobra.Command {
	var itemID, title string
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <list-id>",
		Short: "Queue an add-item edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd.Context(), *app, args[0], models.OpAddItem, models.AddItemPayload{
				ItemID:   itemID,
				Title:    title,
				Quantity: quantity,
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "item id")
	cmd.Flags().StringVar(&title, "title", "", "item title")
	cmd.Flags().IntVar(&quantity, "quantity", 1, "item quantity")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newUpdateCommand(app **client.App) *cobra.Command {
	var itemID, title string
	var quantity int
	var packed bool

	cmd := &cobra.Command{
		Use:   "update <list-id>",
		Short: "Queue a partial item update",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := models.UpdateItemPayload{ItemID: itemID}
			if cmd.Flags().Changed("title") {
				payload.Title = &title
			}
			if cmd.Flags().Changed("quantity") {
				payload.Quantity = &quantity
			}
			if cmd.Flags().Changed("packed") {
				payload.Packed = &packed
			}
			return submit(cmd.Context(), *app, args[0], models.OpUpdateItem, payload)
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "item id")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "new quantity")
	cmd.Flags().BoolVar(&packed, "packed", false, "packed flag")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func newRemoveCommand(app **client.App) *cobra.Command {
	var itemID string

	cmd := &cobra.Command{
		Use:   "remove <list-id>",
		Short: "Queue an item removal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd.Context(), *app, args[0], models.OpRemoveItem, models.RemoveItemPayload{ItemID: itemID})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "item id")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func newReorderCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <list-id> <item-id>...",
		Short: "Queue a full reordering of a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd.Context(), *app, args[0], models.OpReorderItems, models.ReorderItemsPayload{ItemIDs: args[1:]})
		},
	}
}

func newSyncCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain every queued edit toward the server now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := (*app).SyncNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("sync complete")
			return nil
		},
	}
}

func newConflictsCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List open conflicts awaiting resolution",
		RunE: func(*cobra.Command, []string) error {
			records := (*app).Conflicts()
			if len(records) == 0 {
				fmt.Println("no open conflicts")
				return nil
			}
			for _, record := range records {
				fmt.Printf("list %s: local v%d vs remote v%d (op %s)\n",
					record.EntityID, record.LocalData.Version, record.RemoteData.Version, record.OffendingOpID)
			}
			return nil
		},
	}
}

func newResolveCommand(app **client.App) *cobra.Command {
	var strategy, mergedKind, mergedPayload string

	cmd := &cobra.Command{
		Use:   "resolve <list-id>",
		Short: "Settle an open conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution := models.Resolution{
				Kind:          models.ResolutionKind(strategy),
				MergedKind:    models.OpKind(mergedKind),
				MergedPayload: json.RawMessage(mergedPayload),
			}
			if err := (*app).Resolve(cmd.Context(), args[0], resolution); err != nil {
				return err
			}
			fmt.Println("conflict resolved")
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "accept_remote, accept_local or manual_merge")
	cmd.Flags().StringVar(&mergedKind, "kind", "", "operation kind for manual_merge")
	cmd.Flags().StringVar(&mergedPayload, "payload", "", "JSON payload for manual_merge")
	_ = cmd.MarkFlagRequired("strategy")

	return cmd
}

func newRunCommand(app **client.App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background sync loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			defer stop()

			return (*app).Run(ctx)
		},
	}
}

func submit(ctx context.Context, app *client.App, entityID string, kind models.OpKind, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	entry, err := app.Submit(ctx, entityID, kind, payload)
	if err != nil {
		return err
	}
	fmt.Printf("queued %s (%s)\n", entry.OpID, kind)

	// Best effort immediate delivery; the edit stays queued when offline.
	syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = app.SyncNow(syncCtx); err != nil {
		fmt.Printf("not synced yet: %v\n", err)
	}

	return nil
}

func printSnapshot(snapshot models.Snapshot) {
	fmt.Printf("%s (version %d) %s\n", snapshot.EntityID, snapshot.Version, snapshot.Title)
	for _, item := range snapshot.Items {
		mark := " "
		if item.Packed {
			mark = "x"
		}
		fmt.Printf("  [%s] %d. %s x%d\n", mark, item.Position, item.Title, item.Quantity)
	}
}
