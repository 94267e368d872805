package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Reasoning is the structured explanation returned by the model
type Reasoning struct {
	Summary            string   `json:"summary" jsonschema_description:"Two or three sentences explaining the result to a panchayat official in plain language"`
	RecommendedActions []string `json:"recommended_actions" jsonschema_description:"Concrete next steps for the pump operator or block official, most urgent first"`
}

// ReasoningRequest carries a scorer's input and its deterministic output.
// The model explains the result; it never changes tier or score.
type ReasoningRequest struct {
	Kind    entities.Kind
	Subject string
	Input   any
	Result  any
}

// ReasoningService defines the interface for the text-generation collaborator
type ReasoningService interface {
	Explain(ctx context.Context, req ReasoningRequest) (*Reasoning, error)
}

// openAIServiceImpl implements the ReasoningService interface.
type openAIServiceImpl struct {
	client openai.Client
	model  openai.ChatModel
	schema interface{}
	logger *zap.Logger
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewOpenAIService creates and initializes a new ReasoningService.
func NewOpenAIService(apiKey, model string, logger *zap.Logger) (ReasoningService, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	chatModel := openai.ChatModel(model)
	if model == "" {
		chatModel = openai.ChatModelGPT4o
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &openAIServiceImpl{
		client: client,
		model:  chatModel,
		schema: GenerateSchema[Reasoning](),
		logger: logger,
	}, nil
}

// Explain asks the model to explain a scorer result and suggest actions.
func (s *openAIServiceImpl) Explain(ctx context.Context, req ReasoningRequest) (*Reasoning, error) {
	userPrompt, err := BuildUserPrompt(req)
	if err != nil {
		return nil, err
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "diagnostic_reasoning",
		Description: openai.String("Plain-language explanation and recommended actions for a water-supply diagnostic result"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: respFormat,
		Model:          s.model,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	reasoning, err := ParseReasoning(chat.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("Failed to unmarshal OpenAI response",
			zap.Error(err),
			zap.String("raw", chat.Choices[0].Message.Content),
		)
		return nil, err
	}
	return reasoning, nil
}

// ParseReasoning decodes the model's JSON answer
func ParseReasoning(content string) (*Reasoning, error) {
	var r Reasoning
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &r, nil
}
