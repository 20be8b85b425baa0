package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/nexus-talent/internal/config"
	"alfredoptarigan/nexus-talent/internal/models"
)

// Turn is one prior exchange used to prime a new chat handle.
type Turn struct {
	Sender models.Sender
	Text   string
}

// ChatHandle is a live conversation with the remote model.
type ChatHandle interface {
	// SendStream sends text and yields the reply fragments in order. The
	// sequence is finite and cannot be restarted.
	SendStream(ctx context.Context, text string) iter.Seq2[string, error]
}

// ChatProvider opens conversations with the remote model.
type ChatProvider interface {
	CreateSession(ctx context.Context, history []Turn) (ChatHandle, error)
}

// Embedder turns text into a vector for the candidate index.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddingWithRetry(ctx context.Context, text string, maxRetries int, initialDelay time.Duration) ([]float32, error)
}

type GeminiService interface {
	ChatProvider
	Embedder
}

type geminiService struct {
	client            *genai.Client
	chatModel         string
	embedModel        string
	systemInstruction string
	log               *zap.Logger
}

// NewGeminiService builds the Gemini-backed provider. A missing API key is
// not an error here: every session creation reports ErrMissingCredential
// instead, so the rest of the application keeps working.
func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, systemInstruction string, log *zap.Logger) (GeminiService, error) {
	svc := &geminiService{
		chatModel:         cfg.ChatModel,
		embedModel:        cfg.EmbedModel,
		systemInstruction: systemInstruction,
		log:               log,
	}

	if cfg.APIKey == "" {
		log.Warn("⚠️ GEMINI_API_KEY is not set, chat sessions cannot be created")
		return svc, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	svc.client = client

	return svc, nil
}

// CreateSession implements ChatProvider.
func (g *geminiService) CreateSession(ctx context.Context, history []Turn) (ChatHandle, error) {
	if g.client == nil {
		return nil, ErrMissingCredential
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		contents = append(contents, genai.NewContentFromText(t.Text, geminiRole(t.Sender)))
	}

	chat, err := g.client.Chats.Create(ctx, g.chatModel, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemInstruction, genai.RoleUser),
	}, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}

	g.log.Debug("🤖 Gemini chat created",
		zap.String("model", g.chatModel),
		zap.Int("history", len(contents)))

	return &geminiHandle{chat: chat}, nil
}

func geminiRole(sender models.Sender) genai.Role {
	if sender == models.SenderUser {
		return genai.RoleUser
	}
	return genai.RoleModel
}

type geminiHandle struct {
	chat *genai.Chat
}

// SendStream implements ChatHandle.
func (h *geminiHandle) SendStream(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range h.chat.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				yield("", err)
				return
			}
			if resp == nil {
				continue
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if g.client == nil {
		return nil, ErrMissingCredential
	}

	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateEmbeddingWithRetry implements Embedder. Delays double after each
// failed attempt; a missing credential is never retried.
func (g *geminiService) GenerateEmbeddingWithRetry(ctx context.Context, text string, maxRetries int, initialDelay time.Duration) ([]float32, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		vec, err := g.GenerateEmbedding(ctx, text)
		if err == nil {
			return vec, nil
		}
		if errors.Is(err, ErrMissingCredential) {
			return nil, err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		g.log.Warn("⚠️ Embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
