package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Fuu-choco/zoom-line-bot/conversation"
	"github.com/Fuu-choco/zoom-line-bot/core/bootstrap"
	corecmd "github.com/Fuu-choco/zoom-line-bot/core/cmd"
	coreconfig "github.com/Fuu-choco/zoom-line-bot/core/config"
	"github.com/Fuu-choco/zoom-line-bot/gcal"
	"github.com/Fuu-choco/zoom-line-bot/line"
	"github.com/Fuu-choco/zoom-line-bot/meetings"
	"github.com/Fuu-choco/zoom-line-bot/server"
	"github.com/Fuu-choco/zoom-line-bot/zoom"
)

type appConfig struct {
	cfg *coreconfig.Config
}

func (c *appConfig) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	cfg        *coreconfig.Config
	db         *sqlx.DB
	lineClient *line.Client
	webhook    *line.Webhook
	repo       *meetings.Repo
	queue      *meetings.Queue
}

// buildApp wires the whole bot: infrastructure first, then the provider
// clients, then the dialogue machine behind the webhook.
func buildApp(carrier corecmd.ConfigCarrier) (corecmd.App, error) {
	cfg := carrier.CoreConfig()

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg,
		Database: bootstrap.DatabaseFromConfig(cfg.Database),
	})
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Zoom.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Zoom.Timezone, err)
	}

	lineClient := line.NewClient(line.ClientOptions{
		ChannelToken: cfg.Line.ChannelToken,
		Queue: line.QueueOptions{
			QueueSize: cfg.Queues.Send.Size,
			Workers:   cfg.Queues.Send.Workers,
		},
	})

	zoomClient := zoom.NewClient(zoom.Options{
		APIKey:    cfg.Zoom.APIKey,
		APISecret: cfg.Zoom.APISecret,
		Timezone:  cfg.Zoom.Timezone,
	})

	calClient, err := gcal.NewClient(gcal.Options{
		CredentialsJSON: cfg.Google.CredentialsJSON,
		CalendarID:      cfg.Google.CalendarID,
		Timezone:        cfg.Zoom.Timezone,
	})
	if err != nil {
		return nil, err
	}

	repo := meetings.NewRepo(res.DB)
	provisioner := meetings.NewProvisioner(zoomClient, calClient, repo, lineClient)
	queue := meetings.NewQueue(provisioner, meetings.QueueOptions{
		Size:    cfg.Queues.Provision.Size,
		Workers: cfg.Queues.Provision.Workers,
	})

	machine := conversation.NewMachine(conversation.NewMemoryStore(), lineClient, queue, loc)
	webhook := line.NewWebhook(cfg.Line.ChannelSecret, func(ctx context.Context, ev line.Event) {
		machine.HandleMessage(ctx, ev.Source.UserID, ev.Message.Text, ev.ReplyToken)
	})

	return &app{
		cfg:        cfg,
		db:         res.DB,
		lineClient: lineClient,
		webhook:    webhook,
		repo:       repo,
		queue:      queue,
	}, nil
}

func (a *app) ServerRunOptions() (server.RunOptions, error) {
	mux := server.NewMux(server.Deps{
		Config:   a.cfg,
		DB:       a.db,
		Webhook:  a.webhook,
		Meetings: a.repo,
	})

	return server.RunOptions{
		Config:  a.cfg,
		Handler: mux,
		OnStop: func(context.Context) error {
			// Let in-flight webhook events finish, then drain the
			// provisioning and send queues before closing the DB.
			a.webhook.Wait()
			a.queue.Close()
			a.lineClient.Close()
			if a.db != nil {
				_ = a.db.Close()
			}
			return nil
		},
	}, nil
}
