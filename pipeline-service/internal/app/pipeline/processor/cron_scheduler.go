package processor

import (
	"context"

	"satisfaction/pipeline-service/internal/app/pipeline/service"
	"satisfaction/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler запускает прогон конвейера по расписанию.
// Повторный запуск поверх идущего прогона не стартует - конвейер
// однопоточный, батчевый.
type CronScheduler struct {
	cron    *cron.Cron
	runner  service.PipelineRunner
	running chan struct{} // семафор на один одновременный прогон
}

// NewCronScheduler создает планировщик прогонов
func NewCronScheduler(runner service.PipelineRunner) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(),
		runner:  runner,
		running: make(chan struct{}, 1),
	}
}

// Start регистрирует расписание и запускает планировщик.
// runOnStart дополнительно запускает прогон сразу, в фоне.
func (s *CronScheduler) Start(ctx context.Context, schedule string, runOnStart bool) error {
	log := logger.Component("cron_scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.triggerRun(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("schedule", schedule).Msg("cron scheduler started")

	if runOnStart {
		go s.triggerRun(ctx)
	}

	return nil
}

// triggerRun выполняет прогон, если другой прогон ещё не идёт
func (s *CronScheduler) triggerRun(ctx context.Context) {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		log := logger.Component("cron_scheduler")
		log.Warn().
			Msg("pipeline run already in progress, skipping scheduled run")
		return
	}

	s.run(ctx, "scheduled")
}

// TriggerNow запускает внеплановый прогон в фоне.
// Семафор общий с запусками по расписанию: если прогон уже идёт -
// новый не стартует и возвращается false.
func (s *CronScheduler) TriggerNow(ctx context.Context) bool {
	select {
	case s.running <- struct{}{}:
	default:
		log := logger.Component("cron_scheduler")
		log.Warn().
			Msg("pipeline run already in progress, manual run rejected")
		return false
	}

	go func() {
		defer func() { <-s.running }()
		s.run(ctx, "manual")
	}()

	return true
}

// run выполняет один прогон под уже захваченным семафором
func (s *CronScheduler) run(ctx context.Context, origin string) {
	log := logger.Component("cron_scheduler")
	log.Info().Str("origin", origin).Msg("pipeline run triggered")

	if _, err := s.runner.Run(ctx); err != nil {
		log.Error().Str("origin", origin).Err(err).Msg("pipeline run failed")
		return
	}

	log.Info().Str("origin", origin).Msg("pipeline run completed")
}

// Stop останавливает планировщик и дожидается завершения задач
func (s *CronScheduler) Stop() {
	log := logger.Component("cron_scheduler")
	log.Info().Msg("stopping cron scheduler")

	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Info().Msg("cron scheduler stopped")
}

// Entries возвращает зарегистрированные задачи (для health проверок)
func (s *CronScheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
