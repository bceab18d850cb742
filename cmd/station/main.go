package main

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"koinonia.church/koinonia/config"
	v1 "koinonia.church/koinonia/membership/v1"
	"koinonia.church/koinonia/security"
	"koinonia.church/koinonia/station/core"
	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/station/scanner"
	"koinonia.church/koinonia/station/store"
	"koinonia.church/koinonia/station/web/handlers"
	"koinonia.church/koinonia/web/middlewares"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	token, err := security.CreateIdentityToken(&security.StationIdentity{
		Id:        cfg.VolunteerID,
		UserName:  cfg.VolunteerName,
		Email:     cfg.VolunteerEmail,
		StationID: cfg.StationID,
	}, cfg.AuthSecret, 12*3600)
	if err != nil {
		log.Fatal(err)
	}

	client := v1.NewMembershipClient(cfg.ServerURL, token, cfg.RequestTimeout())
	oracle := core.NewProbeOracle(cfg.ServerURL, cfg.RequestTimeout())
	engine := core.NewReconciler(client.Attendance, st, oracle, logger)
	sync := core.NewSyncService(client.Attendance, st, logger)

	jwtSecret, err := base64.StdEncoding.DecodeString(cfg.AuthSecret)
	if err != nil {
		log.Fatal("failed to decode JWT secret:", err)
	}

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	h := &handlers.Handler{
		Client: client,
		Engine: engine,
		Sync:   sync,
		Store:  st,
		Oracle: oracle,
	}

	protected := r.Group("/api/station/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	handlers.Register(protected, h)

	if cfg.ScannerDevice != "" {
		go runScanner(cfg.ScannerDevice, client, engine, logger)
	}

	log.Printf("station listening at %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// runScanner drives an attended kiosk: one active event, scan, check in,
// rescan. It only runs when the check-in window has exactly one open event;
// with several, the web surface must pick.
func runScanner(device string, client *v1.MembershipClient, engine *core.Reconciler, logger *zap.Logger) {
	ctx := context.Background()

	events, err := client.Events.Active(ctx)
	if err != nil {
		logger.Warn("scanner idle: cannot list active events", zap.Error(err))
		return
	}
	event, err := core.SelectEvent(events, "")
	if err != nil {
		logger.Warn("scanner idle: no single active event", zap.Error(err))
		return
	}

	s := scanner.New(scanner.Device(device))
	defer s.Stop()

	for {
		if err := s.Start(); err != nil {
			if errors.Is(err, scanner.ErrPermissionDenied) {
				logger.Error("scanner device refused; check udev permissions", zap.String("device", device))
			} else {
				logger.Error("scanner start failed", zap.Error(err))
			}
			return
		}

		select {
		case d := <-s.Decodes():
			s.Stop()
			result, err := engine.CheckIn(ctx, core.Attempt{
				Identifier: d.Text,
				Method:     methodFor(d.Text),
				EventID:    event.ID,
			})
			if err != nil {
				logger.Warn("scan not checked in", zap.String("event_id", event.ID), zap.Error(err))
				continue
			}
			logger.Info("scan checked in",
				zap.String("event_id", event.ID),
				zap.String("member", result.Member.FullName),
				zap.String("mode", string(result.Mode)))
		case err := <-s.Errors():
			if errors.Is(err, io.EOF) {
				logger.Warn("scanner stream ended; reopening", zap.String("device", device))
				continue
			}
			logger.Error("scanner read failed", zap.Error(err))
			return
		}
	}
}

// methodFor: a payload of fellowship-number length came from the keypad
// wedge; anything else is a QR payload.
func methodFor(text string) model.Method {
	if len(text) == model.FellowshipNumberLength {
		return model.MethodFellowshipNumber
	}
	return model.MethodQR
}
