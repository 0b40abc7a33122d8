package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"capsulifyapi/outfits"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// LLMModelName is the image model used to extract garments.
type LLMModelName int32

const (
	Flash25Image LLMModelName = iota
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Flash25Image:
		return "gemini-2.5-flash-image-preview"
	default:
		return "gemini-2.0-flash"
	}
}

var (
	// ErrContentBlocked means the model refused the photo. Retrying won't help.
	ErrContentBlocked = errors.New("content blocked")
	// ErrNoGarmentImage means the model answered without an image, usually
	// because no garment of the requested category was found.
	ErrNoGarmentImage = errors.New("no garment image returned")
)

type LLMResponse struct {
	Response           string   `json:"response"`
	Images             [][]byte `json:"images,omitempty"`
	InputTokenCount    int32    `json:"input_token_count"`
	Thoughts           string   `json:"thoughts"`
	ThoughtsTokenCount int32    `json:"thoughts_token_count"`
	OutputTokenCount   int32    `json:"output_token_count"`
	TotalTokenCount    int32    `json:"total_token_count"`
	IsTest             bool     `json:"is_test"`
}

type GarmentProcessor interface {
	ExtractGarment(ctx context.Context, photoPath string, category outfits.Category, modelName LLMModelName) (*LLMResponse, error)
}

type GoogleGarmentProcessor struct {
	APIKey string
}

func floatPointer(f float32) *float32 {
	return &f
}

func tryUploadGoogleStorage(ctx context.Context, client *genai.Client, filePath string) (*genai.File, error) {
	const maxUploadTimes = 3
	var lastErr error
	for i := range maxUploadTimes {
		genFile, err := client.Files.UploadFromPath(ctx, filePath, &genai.UploadFileConfig{})
		if err == nil {
			return genFile, nil
		}
		lastErr = err
		zap.L().Warn("genai upload failed", zap.String("path", filePath), zap.Int("attempt", i+1), zap.Error(err))
	}
	return nil, fmt.Errorf("failed to upload %s after %d attempts: %w", filePath, maxUploadTimes, lastErr)
}

func garmentPrompt(category outfits.Category) string {
	return fmt.Sprintf("Isolate the %s worn or shown in this photo. Output only that single garment as a flat "+
		"e-commerce product shot, centered, facing the camera, on a solid flat pure white background with no "+
		"shadows, gradients, hangers, hands, people or other objects. Keep its exact colour, pattern, texture "+
		"and proportions. If there is no %s in the photo, answer with the text NO_GARMENT and no image.",
		category.Slug(), category.Slug())
}

// GetAllInlineImages collects every inline image of the response. A blocked
// candidate fails the whole response.
func GetAllInlineImages(result *genai.GenerateContentResponse) ([][]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("empty response")
	}

	var allImageData [][]byte
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("%w: %s", ErrContentBlocked, rating.Category)
			}
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			inlineData := part.InlineData
			if inlineData != nil && strings.HasPrefix(inlineData.MIMEType, "image/") && len(inlineData.Data) > 0 {
				allImageData = append(allImageData, inlineData.Data)
			}
		}
	}
	return allImageData, nil
}

func (p GoogleGarmentProcessor) ExtractGarment(ctx context.Context, photoPath string, category outfits.Category, modelName LLMModelName) (*LLMResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	photo, err := tryUploadGoogleStorage(ctx, client, photoPath)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		{FileData: &genai.FileData{FileURI: photo.URI, MIMEType: photo.MIMEType}},
		{Text: garmentPrompt(category)},
	}
	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:     1,
		MaxOutputTokens:    32768,
		Temperature:        floatPointer(0.4),
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s %s", ErrContentBlocked, result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}

	images, err := GetAllInlineImages(result)
	if err != nil {
		return nil, err
	}

	response := &LLMResponse{Images: images}
	if result.UsageMetadata != nil {
		response.InputTokenCount = result.UsageMetadata.PromptTokenCount
		response.ThoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		response.OutputTokenCount = result.UsageMetadata.CandidatesTokenCount
		response.TotalTokenCount = result.UsageMetadata.TotalTokenCount
	}
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Thought {
				response.Thoughts += part.Text
			} else {
				response.Response += part.Text
			}
		}
	}

	zap.L().Info("garment extraction finished",
		zap.String("model", modelName.String()),
		zap.Int("images", len(images)),
		zap.Int32("total_tokens", response.TotalTokenCount),
	)
	if len(images) == 0 {
		return response, fmt.Errorf("%w: %s", ErrNoGarmentImage, strings.TrimSpace(response.Response))
	}
	return response, nil
}
