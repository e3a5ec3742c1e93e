package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
)

const DefaultTelegramAPIURL = "https://api.telegram.org"

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
}

// TelegramSink posts each event to a chat through the Bot API sendMessage call.
type TelegramSink struct {
	cfg    TelegramConfig
	client *http.Client
}

func NewTelegramSink(cfg TelegramConfig, client *http.Client) (*TelegramSink, error) {
	if strings.TrimSpace(cfg.BotToken) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram sink requires bot token and chat id")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultTelegramAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelegramSink{cfg: cfg, client: client}, nil
}

func (*TelegramSink) Name() string {
	return "telegram"
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func (s *TelegramSink) Deliver(ctx context.Context, event entities.WorkflowEvent) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                s.cfg.ChatID,
		Text:                  subjectFor(event) + "\n\n" + bodyFor(event),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	endpoint := s.cfg.APIURL + "/bot" + s.cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// Keep the token out of error strings.
		return fmt.Errorf("telegram sendMessage: %s", strings.ReplaceAll(err.Error(), s.cfg.BotToken, "***"))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var decoded sendMessageResponse
	_ = json.Unmarshal(body, &decoded)
	if resp.StatusCode != http.StatusOK || !decoded.OK {
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode, decoded.Description)
	}
	return nil
}
