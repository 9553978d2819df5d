package webhooks

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/PiotrWarzachowski/go-anonymizer/actions"
	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/logging"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/webhook"
)

// WebhooksCommand is the CLI command for webhook registrations
var WebhooksCommand = &cli.Command{
	Name:  "webhooks",
	Usage: "Manage job notification webhooks",
	Commands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List registered webhooks",
			Action: listAction,
		},
		{
			Name:      "create",
			Usage:     "Register a webhook URL",
			ArgsUsage: "<url>",
			Action:    createAction,
		},
		{
			Name:      "update",
			Usage:     "Point a webhook at a new URL",
			ArgsUsage: "<id> <url>",
			Action:    updateAction,
		},
		{
			Name:      "delete",
			Usage:     "Remove a webhook",
			ArgsUsage: "<id>",
			Aliases:   []string{"rm"},
			Action:    deleteAction,
		},
		{
			Name:      "test",
			Usage:     "Ask the service to send a test notification",
			ArgsUsage: "<id>",
			Action:    testAction,
		},
		{
			Name:  "listen",
			Usage: "Run a local receiver that prints job notifications",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "addr",
					Usage: "Listen address (defaults to webhook_listen from the config)",
				},
				&cli.StringFlag{
					Name:  "token",
					Usage: "Required bearer token (defaults to webhook_token from the config)",
				},
				&cli.StringFlag{
					Name:  "path",
					Value: webhook.DefaultPath,
					Usage: "Path to accept notifications on",
				},
			},
			Action: listenAction,
		},
	},
}

func authedClient(ctx context.Context, cmd *cli.Command) (*client.Client, error) {
	provider, _, err := actions.NewProvider(cmd)
	if err != nil {
		return nil, err
	}
	if err := provider.EnsureSession(ctx); err != nil {
		return nil, err
	}
	return provider.Client(), nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	c, err := authedClient(ctx, cmd)
	if err != nil {
		return err
	}

	hooks, err := c.GetWebhooks(ctx)
	if err != nil {
		return logging.NewOperationError("list webhooks", "", err)
	}
	if len(hooks) == 0 {
		fmt.Println("📭 No webhooks registered")
		return nil
	}

	for _, hook := range hooks {
		printWebhook(hook)
	}
	return nil
}

func createAction(ctx context.Context, cmd *cli.Command) error {
	url := cmd.Args().First()
	if url == "" {
		return fmt.Errorf("webhook url is required")
	}
	c, err := authedClient(ctx, cmd)
	if err != nil {
		return err
	}

	hook, err := c.CreateWebhook(ctx, url)
	if err != nil {
		return logging.NewOperationError("create webhook", url, err)
	}
	fmt.Println("✓ Webhook created")
	printWebhook(*hook)
	return nil
}

func updateAction(ctx context.Context, cmd *cli.Command) error {
	id, url := cmd.Args().Get(0), cmd.Args().Get(1)
	if id == "" || url == "" {
		return fmt.Errorf("webhook id and url are required")
	}
	c, err := authedClient(ctx, cmd)
	if err != nil {
		return err
	}

	hook, err := c.UpdateWebhook(ctx, id, url)
	if err != nil {
		return logging.NewOperationError("update webhook", id, err)
	}
	fmt.Println("✓ Webhook updated")
	printWebhook(*hook)
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("webhook id is required")
	}
	c, err := authedClient(ctx, cmd)
	if err != nil {
		return err
	}

	if err := c.DeleteWebhook(ctx, id); err != nil {
		return logging.NewOperationError("delete webhook", id, err)
	}
	fmt.Printf("✓ Webhook %s deleted\n", id)
	return nil
}

func testAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("webhook id is required")
	}
	c, err := authedClient(ctx, cmd)
	if err != nil {
		return err
	}

	if err := c.TestWebhook(ctx, id); err != nil {
		return logging.NewOperationError("test webhook", id, err)
	}
	fmt.Printf("✓ Test notification sent to webhook %s\n", id)
	return nil
}

func listenAction(ctx context.Context, cmd *cli.Command) error {
	provider, logger, err := actions.NewProvider(cmd)
	if err != nil {
		return err
	}
	cfg := provider.Config()

	addr := cmd.String("addr")
	if addr == "" {
		addr = cfg.WebhookListen
	}
	token := cmd.String("token")
	if token == "" {
		token = cfg.WebhookToken
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := webhook.NewRouter(webhook.Options{
		Path:   cmd.String("path"),
		Token:  token,
		Logger: logger,
	}, func(_ context.Context, n webhook.Notification) {
		printStatus(n)
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("👂 Listening for job notifications on http://%s%s\n", listener.Addr(), cmd.String("path"))
	if token == "" {
		fmt.Println("   ⚠ No token configured, accepting unauthenticated posts")
	}
	logger.Info("webhook receiver started", zap.String("addr", listener.Addr().String()))

	return webhook.Serve(ctx, listener, router, logger)
}

func printWebhook(hook client.Webhook) {
	state := "inactive"
	if hook.Active {
		state = "active"
	}
	fmt.Printf("🔔 %s (%s)\n", hook.UUID, state)
	fmt.Printf("   ├─ URL:     %s\n", hook.WebhookURL)
	if hook.WebhookToken != "" {
		fmt.Printf("   ├─ Token:   %s\n", hook.WebhookToken)
	}
	if created := hook.ParsedCreatedAt(); !created.IsZero() {
		fmt.Printf("   └─ Created: %s\n", created.Local().Format("Jan 2, 3:04 PM"))
	}
}

func printStatus(n webhook.Notification) {
	fmt.Printf("📨 Job %s: %s\n", n.AnonymizationJobID, n.Status)
	if n.OutputMedia != "" {
		fmt.Printf("   ├─ Media:      %s\n", n.OutputMedia)
	}
	if n.OutputJSON != "" {
		fmt.Printf("   ├─ Detections: %s\n", n.OutputJSON)
	}
	if n.Error != "" {
		fmt.Printf("   └─ Error:      %s\n", n.Error)
	}
}
