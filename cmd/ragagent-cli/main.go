package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/wen-han-chang/RAG-agent/internal/app"
	"github.com/wen-han-chang/RAG-agent/internal/config"
	"github.com/wen-han-chang/RAG-agent/internal/llm"
)

func main() {
	userID := flag.String("user", "willy", "user id for this chat session")
	flag.Parse()

	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "ragagent-cli"})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", "error", err)
	}

	ctx := context.Background()
	result, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", "error", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	fmt.Println("Chat CLI started. 輸入 /exit 結束")

	// Unlike the HTTP endpoint, the REPL keeps short-term history for the
	// whole session; long-term memory persists either way.
	var history []llm.Message
	historyCap := 2 * cfg.HistoryMaxTurns

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("你：")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/exit" {
			break
		}

		reply, err := result.Agent.Respond(ctx, *userID, text, history)
		if err != nil {
			logger.Error("turn failed", "error", err)
			continue
		}
		fmt.Printf("\n助理：%s\n\n", reply)

		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: text},
			llm.Message{Role: llm.RoleAssistant, Content: reply},
		)
		if len(history) > historyCap {
			history = history[len(history)-historyCap:]
		}
	}

	fmt.Println("👋 已結束。")
}
