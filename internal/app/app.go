package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/noneedrelax/VoiceStream/internal/asr"
	"github.com/noneedrelax/VoiceStream/internal/audio/wav"
	"github.com/noneedrelax/VoiceStream/internal/clipboard"
	"github.com/noneedrelax/VoiceStream/internal/config"
	"github.com/noneedrelax/VoiceStream/internal/hotkey"
	"github.com/noneedrelax/VoiceStream/internal/metrics"
	"github.com/noneedrelax/VoiceStream/internal/notify"
	"github.com/noneedrelax/VoiceStream/internal/record"
	"github.com/noneedrelax/VoiceStream/internal/tray"
)

// LoggerFunc returns the logger for a component such as "record" or "asr".
type LoggerFunc func(component string) *slog.Logger

// RunRecordMode wires capture, transcription, insertion, hotkeys and the
// tray, then blocks until ctx is done or Quit is chosen from the tray.
// When cfg.Tray is false it runs headless and only logs state changes.
func RunRecordMode(ctx context.Context, cfg config.Config, logs LoggerFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logs("app")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logs("metrics")); err != nil {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	transcriber, err := asr.New(cfg, asr.NewHTTPClient(cfg), logs("asr"))
	if err != nil {
		return err
	}
	notifier := notify.New(cfg.Notification, logs("notify"))
	paster := clipboard.NewSystem(cfg.PasteDelay(), logs("paste"))

	var ctrl *Controller
	rec := record.New(record.PortAudio{}, record.Options{
		StopGrace:   cfg.StopGrace(),
		OnInterrupt: func(id string, err error) { ctrl.Interrupted(id, err) },
		Logger:      logs("record"),
		Metrics:     m,
	})

	var (
		observer StatusObserver = logObserver{log}
		icon     *tray.Tray
	)
	if cfg.Tray {
		icon = tray.New(tray.Actions{
			Start: func() { ctrl.OnStartTrigger() },
			Stop:  func() { ctrl.OnStopTrigger() },
			About: notifier.About,
			Quit:  cancel,
		}, logs("tray"))
		observer = icon
	}

	ctrl = NewController(Deps{
		Recorder:    rec,
		Transcriber: transcriber,
		Inserter:    paster,
		Observer:    observer,
		Reporter:    notifier,
		Metrics:     m,
		Logger:      logs("controller"),
	})

	keys, err := hotkey.Listen([]hotkey.Binding{
		{Name: "start", Spec: cfg.StartKey, Handler: ctrl.OnStartTrigger},
		{Name: "stop", Spec: cfg.StopKey, Handler: ctrl.OnStopTrigger},
		{Name: "cancel", Spec: cfg.CancelKey, Handler: ctrl.OnCancelTrigger},
	}, logs("hotkey"))
	if err != nil {
		return err
	}
	defer keys.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ctrl.Run(ctx)
	}()

	log.Info("ready",
		slog.String("start", cfg.StartKey),
		slog.String("stop", cfg.StopKey),
		slog.String("backend", cfg.Backend),
	)

	if icon != nil {
		go func() {
			<-ctx.Done()
			icon.Quit()
		}()
		icon.Run(cancel)
	} else {
		<-ctx.Done()
	}

	cancel()
	wg.Wait()
	log.Info("stopped")
	return nil
}

// TranscribeFile uploads an existing WAV file and writes the text to
// outputPath, or to w when outputPath is empty.
func TranscribeFile(ctx context.Context, cfg config.Config, inputPath, outputPath string, w io.Writer, logs LoggerFunc) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read '%s': %w", inputPath, err)
	}
	info, err := wav.Inspect(data)
	if err != nil {
		return fmt.Errorf("'%s' is not a PCM wav file: %w", inputPath, err)
	}
	if info.DataBytes == 0 {
		return &wav.EncodingError{Reason: fmt.Sprintf("'%s' holds no audio", inputPath)}
	}
	logs("app").Debug("input",
		slog.String("file", inputPath),
		slog.Int("rate", info.SampleRate),
		slog.Int("channels", info.Channels),
		slog.Duration("duration", info.Duration),
	)

	transcriber, err := asr.New(cfg, asr.NewHTTPClient(cfg), logs("asr"))
	if err != nil {
		return err
	}
	text, err := transcriber.Transcribe(ctx, &wav.EncodedAudio{
		Name:        filepath.Base(inputPath),
		Data:        data,
		SampleRate:  info.SampleRate,
		Channels:    info.Channels,
		SampleWidth: info.SampleWidth,
		Duration:    info.Duration,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		_, err = fmt.Fprintln(w, text)
		return err
	}
	return os.WriteFile(outputPath, []byte(text), 0644)
}

// logObserver reports state changes when no tray is shown.
type logObserver struct{ log *slog.Logger }

func (o logObserver) SetIdle()      { o.log.Info("idle") }
func (o logObserver) SetRecording() { o.log.Info("recording") }
