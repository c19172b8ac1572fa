package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
	llmx "github.com/tanpawarit/task-planner/agent/llm"
	memoryx "github.com/tanpawarit/task-planner/agent/memory"
	toolx "github.com/tanpawarit/task-planner/agent/tool"
	configx "github.com/tanpawarit/task-planner/pkg/config"
	_ "github.com/tanpawarit/task-planner/pkg/logger/autoload"
)

type AppConfig struct {
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"90s"`
}

var (
	taskFlag        = flag.String("task", "", "task to break into subtasks")
	maxSubtasksFlag = flag.Int("max-subtasks", toolx.DefaultMaxSubtasks, "maximum number of subtasks to keep (1-20)")
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("planner failed")
		os.Exit(1)
	}
}

func run() error {
	// configx parses flags on first use, so every flag is declared above.
	appCfg := configx.MustNew[AppConfig]("PLANNER")
	llmCfg := configx.MustNew[llmx.Config]("PLANNER_LLM")
	memoryCfg := configx.MustNew[memoryx.Config]("PLANNER_MEMORY")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if appCfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, appCfg.RequestTimeout)
		defer cancel()
	}

	registry, err := llmx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		return fmt.Errorf("build model registry: %w", err)
	}

	memory, closeMemory, err := memoryx.NewService(ctx, *memoryCfg)
	if err != nil {
		return fmt.Errorf("open memory service: %w", err)
	}
	defer func() {
		if err := closeMemory(); err != nil {
			log.Warn().Err(err).Msg("close memory service")
		}
	}()

	_, execute, err := toolx.BuildCatalog(ctx, toolx.NewPlanCreationTool(memory, registry))
	if err != nil {
		return fmt.Errorf("build tool catalog: %w", err)
	}
	result, err := execute(ctx, contractx.ToolRequest{
		Tool: toolx.ToolCreatePlan,
		Args: map[string]any{
			"task":        *taskFlag,
			"maxSubtasks": *maxSubtasksFlag,
		},
	})
	if err != nil {
		return err
	}
	if result.Error != "" {
		return errors.New(result.Error)
	}

	switch out := result.Result.(type) {
	case json.RawMessage:
		fmt.Println(string(out))
	default:
		fmt.Println(out)
	}
	return nil
}
