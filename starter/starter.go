package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"warranty-registration/api"
	"warranty-registration/codec"
	"warranty-registration/config"
	"warranty-registration/logging"
	"warranty-registration/models"
	"warranty-registration/wizard"
	"warranty-registration/workflows"

	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

const usage = `usage: starter <command> [flags]

commands:
  start                          start a registration
  query     --workflow-id ID     show the current step
  edit      --workflow-id ID --field F --value V
  language  --workflow-id ID --lang en|zh
  submit    --workflow-id ID
  verify    --workflow-id ID --token T
  close     --workflow-id ID
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	command := args[0]

	fs := pflag.NewFlagSet("starter "+command, pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	workflowID := fs.String("workflow-id", "", "registration workflow ID")
	field := fs.String("field", "", "form field to edit (orderId, name, email)")
	value := fs.String("value", "", "new field value")
	lang := fs.String("lang", "", "display language (en, zh)")
	token := fs.String("token", "", "verification token from the email link")
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Resolve(os.LookupEnv)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	keyBytes, err := cfg.MasterKey()
	if err != nil {
		return err
	}
	if keyBytes == nil {
		return errors.New("ENCRYPTION_KEY must be set to the worker's key")
	}

	dataConverter, err := codec.NewEncryptionDataConverter(keyBytes)
	if err != nil {
		return fmt.Errorf("failed to create encryption data converter: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:      cfg.Temporal.Address,
		Namespace:     cfg.Temporal.Namespace,
		DataConverter: dataConverter,
		Logger:        logging.NewTemporalLogger(logger.Named("temporal")),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	registrations := api.NewTemporalRegistrations(c, api.RegistrationSettings{
		TaskQueue:           cfg.Temporal.TaskQueue,
		VerifyBaseURL:       cfg.HTTP.PublicURL,
		FormTimeout:         cfg.Registration.FormTimeout,
		VerificationTimeout: cfg.Registration.VerificationTimeout,
	})
	renderer := newViewRenderer(cfg.Branding)
	ctx := context.Background()

	if command != "start" && *workflowID == "" {
		return fmt.Errorf("--workflow-id is required for %s", command)
	}

	show := func(state models.WizardState) {
		fmt.Println(renderer.Render(wizard.Render(state)))
	}

	switch command {
	case "start":
		language := cfg.Branding.DefaultLanguage
		if *lang != "" {
			language = models.Language(*lang)
		}
		id, err := registrations.Start(ctx, language)
		if err != nil {
			return err
		}
		logger.Info("Started registration", zap.String("workflow_id", id))
		fmt.Printf("Workflow ID: %s\n\n", id)
		fmt.Println("To fill in the form, run:")
		fmt.Printf("  go run ./starter edit --workflow-id %s --field orderId --value 12346\n", id)
		fmt.Printf("  go run ./starter submit --workflow-id %s\n\n", id)
		return printView(ctx, c, renderer, id)

	case "query":
		return printView(ctx, c, renderer, *workflowID)

	case "edit":
		state, err := registrations.EditField(ctx, *workflowID, models.FieldEdit{Field: models.Field(*field), Value: *value})
		if err != nil {
			return err
		}
		show(state)

	case "language":
		state, err := registrations.SetLanguage(ctx, *workflowID, models.Language(*lang))
		if err != nil {
			return err
		}
		show(state)

	case "submit":
		state, err := registrations.Submit(ctx, *workflowID)
		if err != nil {
			return err
		}
		show(state)

	case "verify":
		if err := registrations.ConfirmVerification(ctx, *workflowID, *token); err != nil {
			return err
		}
		logger.Info("Verification sent", zap.String("workflow_id", *workflowID))
		return printView(ctx, c, renderer, *workflowID)

	case "close":
		if err := registrations.Close(ctx, *workflowID); err != nil {
			return err
		}
		logger.Info("Close sent", zap.String("workflow_id", *workflowID))

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// printView asks the workflow for its rendered view
func printView(ctx context.Context, c client.Client, renderer viewRenderer, workflowID string) error {
	resp, err := c.QueryWorkflow(ctx, workflowID, "", workflows.QueryView)
	if err != nil {
		return fmt.Errorf("failed to query workflow: %w", err)
	}

	var view wizard.View
	if err := resp.Get(&view); err != nil {
		return fmt.Errorf("failed to decode query result: %w", err)
	}
	fmt.Println(renderer.Render(view))
	return nil
}
